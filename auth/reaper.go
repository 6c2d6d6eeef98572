package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/wildlife-registry/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultReaperInterval = 30 * time.Minute

// Reaper periodically removes expired sessions from a store. It runs on a
// single goroutine between Start and Stop and never takes part in request
// handling.
type Reaper struct {
	store    sessions.Store
	interval time.Duration
	nowTime  func() time.Time
	logger   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// ReaperOption defines a function type to modify the Reaper instance.
type ReaperOption func(*Reaper)

func WithReaperInterval(interval time.Duration) ReaperOption {
	return func(r *Reaper) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithReaperClock sets the now time function (primarily for testing)
func WithReaperClock(nowFunc func() time.Time) ReaperOption {
	return func(r *Reaper) {
		r.nowTime = nowFunc
	}
}

func WithReaperLogger(logger zerolog.Logger) ReaperOption {
	return func(r *Reaper) {
		r.logger = logger
	}
}

func NewReaper(store sessions.Store, options ...ReaperOption) *Reaper {
	r := &Reaper{
		store:    store,
		interval: DefaultReaperInterval,
		nowTime:  time.Now,
		logger:   log.Logger,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Start launches the sweep loop. Calling Start on a running reaper does nothing.
func (r *Reaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(loopCtx, r.done)

	r.logger.Info().Dur("interval", r.interval).Msg("Session reaper started")
}

// Stop ends the sweep loop and waits for it to exit. It is safe to call more than once.
func (r *Reaper) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.logger.Info().Msg("Session reaper stopped")
}

func (r *Reaper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := r.Sweep(ctx)
			if err != nil {
				r.logger.Err(err).Int("removed", removed).Msg("Session sweep failed")
				continue
			}
			r.logger.Debug().Int("removed", removed).Msg("Session sweep complete")
		}
	}
}

// Sweep runs a single pass and returns how many sessions were removed. A
// panic inside the pass is recovered and returned as an error.
func (r *Reaper) Sweep(ctx context.Context) (removed int, returnError error) {
	defer func() {
		if rec := recover(); rec != nil {
			returnError = errors.Errorf("[Reaper.Sweep] panic recovered: %v", rec)
		}
	}()

	tokens, err := r.store.ScanExpired(ctx, r.nowTime())
	if err != nil {
		return 0, errors.Wrap(err, "[Reaper.Sweep] store.ScanExpired")
	}

	var lastErr error
	for _, token := range tokens {
		if err := r.store.Remove(ctx, token); err != nil {
			lastErr = err
			continue
		}
		removed++
	}
	if lastErr != nil {
		return removed, errors.Wrapf(lastErr, "[Reaper.Sweep] %d of %d removals failed", len(tokens)-removed, len(tokens))
	}
	return removed, nil
}
