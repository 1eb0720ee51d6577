// Package schedule repeats backup passes with a fixed delay between them.
package schedule

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wled-backup/internal/logging"
)

// Pass runs one backup pass
type Pass func(ctx context.Context) error

// Supervisor runs Pass immediately and then again Interval after each pass
// finishes, until the context is canceled. A failed pass is logged and the
// next one runs on schedule; there are no extra retries in between.
type Supervisor struct {
	Interval time.Duration
	Pass     Pass

	// After, if set, is called with the result of every pass
	After func(n int, err error)
}

// Run blocks until ctx is canceled. It returns nil on cancellation and an
// error only if the supervisor is misconfigured.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.Pass == nil {
		return errors.New("schedule: no pass configured")
	}
	if s.Interval <= 0 {
		return errors.New("schedule: interval must be positive")
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		start := time.Now()
		err := s.Pass(ctx)
		if err != nil && ctx.Err() == nil {
			logging.Warn("Backup pass failed", zap.Int("pass", n), zap.Error(err))
		}
		if s.After != nil {
			s.After(n, err)
		}
		if ctx.Err() != nil {
			return nil
		}

		logging.Info("Next backup pass scheduled",
			zap.Duration("pass_duration", time.Since(start)),
			zap.Time("next", time.Now().Add(s.Interval)),
		)
		timer.Reset(s.Interval)
	}
}
