package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/wildlife-registry/auth"
	apperrors "github.com/jrsteele09/wildlife-registry/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	statusOk    = "ok"
	statusError = "error"

	messageInternal = "internal error"
)

// apiResult is the envelope of every JSON response.
type apiResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

func writeResult(w http.ResponseWriter, httpStatus int, result apiResult) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(result)
}

func writeOK(w http.ResponseWriter, data any) {
	writeResult(w, http.StatusOK, apiResult{Status: statusOk, Data: data})
}

// writeError maps err onto an outcome and writes a generic message for it.
// The error text itself is only logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	outcome := auth.OutcomeOf(err)
	if outcome == auth.OutcomeInternal {
		zerolog.Ctx(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeResult(w, httpStatusOf(outcome), apiResult{Status: outcome.String(), Error: errorMessage(err)})
}

func httpStatusOf(outcome auth.Outcome) int {
	switch outcome {
	case auth.OutcomeOk:
		return http.StatusOK
	case auth.OutcomeUnauthorized:
		return http.StatusUnauthorized
	case auth.OutcomeForbidden:
		return http.StatusForbidden
	case auth.OutcomeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errorMessages = []struct {
	err     error
	message string
}{
	{apperrors.ErrInvalidCredentials, "invalid credentials"},
	{apperrors.ErrInvalidSession, "authentication required"},
	{apperrors.ErrInactiveIdentity, "identity is inactive"},
	{apperrors.ErrInsufficientRole, "insufficient role"},
	{apperrors.ErrMalformedRequest, "malformed request"},
}

func errorMessage(err error) string {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}
	return messageInternal
}
