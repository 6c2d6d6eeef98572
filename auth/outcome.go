package auth

import (
	apperrors "github.com/jrsteele09/wildlife-registry/internal/errors"
	"github.com/pkg/errors"
)

// Outcome is the caller-facing classification of an authentication result.
type Outcome int

const (
	OutcomeOk Outcome = iota
	OutcomeUnauthorized
	OutcomeForbidden
	OutcomeInvalidInput
	OutcomeInternal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOk:
		return "ok"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeInvalidInput:
		return "invalid_input"
	default:
		return "error"
	}
}

// OutcomeOf maps an error from this package onto an Outcome. Unknown errors are Internal.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOk
	case errors.Is(err, apperrors.ErrInvalidCredentials), errors.Is(err, apperrors.ErrInvalidSession):
		return OutcomeUnauthorized
	case errors.Is(err, apperrors.ErrInactiveIdentity), errors.Is(err, apperrors.ErrInsufficientRole):
		return OutcomeForbidden
	case errors.Is(err, apperrors.ErrMalformedRequest):
		return OutcomeInvalidInput
	default:
		return OutcomeInternal
	}
}
