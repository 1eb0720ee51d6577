package runner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wled-backup/internal/backup"
	"github.com/muurk/wled-backup/internal/discovery"
	"github.com/muurk/wled-backup/internal/logging"
)

// Process exit codes
const (
	ExitOK      = 0 // every device backed up, or none found
	ExitPartial = 1 // at least one device failed
	ExitFatal   = 2 // discovery failed or the run could not start
)

// Discoverer finds devices within a bounded window
type Discoverer interface {
	Discover(ctx context.Context, window time.Duration) ([]*discovery.Device, error)
}

// Sweeper removes leftovers of interrupted runs
type Sweeper interface {
	Sweep(maxAge time.Duration) (int, error)
}

// Controller sequences one pass: discovery, then backup of everything found
type Controller struct {
	Discoverer   Discoverer
	Orchestrator *backup.Orchestrator

	// Sweeper is optional; it runs after discovery succeeds
	Sweeper  Sweeper
	SweepAge time.Duration

	Window time.Duration
	OutDir string

	// Now defaults to time.Now
	Now func() time.Time
}

// Run performs one pass. A *discovery.DiscoveryError is returned with a nil
// run, before anything under OutDir is touched. If ctx is canceled the run
// is still returned, with every device not backed up recorded as failed,
// together with ctx.Err().
func (c *Controller) Run(ctx context.Context) (*backup.Run, error) {
	now := c.Now
	if now == nil {
		now = time.Now
	}

	run := backup.NewRun(now(), c.Window, c.OutDir)
	logging.Info("Backup run started",
		zap.String("run_id", run.ID),
		zap.Duration("window", c.Window),
		zap.String("out_dir", c.OutDir),
	)

	devices, err := c.Discoverer.Discover(ctx, c.Window)
	if err != nil {
		var discErr *discovery.DiscoveryError
		if errors.As(err, &discErr) {
			logging.Error("Discovery failed", zap.String("run_id", run.ID), zap.Error(err))
			return nil, err
		}
		if ctx.Err() == nil {
			return nil, err
		}
		// Canceled during the window: account for what was found
	}

	if c.Sweeper != nil && c.SweepAge > 0 {
		if n, err := c.Sweeper.Sweep(c.SweepAge); err != nil {
			logging.Warn("Failed to sweep stale temp files", zap.Error(err))
		} else if n > 0 {
			logging.Info("Removed stale temp files", zap.Int("count", n))
		}
	}

	run = c.Orchestrator.Run(ctx, run, devices)

	logging.Info("Backup run finished",
		zap.String("run_id", run.ID),
		zap.Int("devices", len(run.Outcomes)),
		zap.Int("succeeded", run.Succeeded()),
		zap.Int("failed", run.Failed()),
		zap.Duration("duration", run.Duration()),
	)

	return run, ctx.Err()
}

// ExitCode maps the result of Run to a process exit code
func ExitCode(run *backup.Run, err error) int {
	if run == nil {
		if err != nil {
			return ExitFatal
		}
		return ExitOK
	}
	if !run.OK() || err != nil {
		return ExitPartial
	}
	return ExitOK
}
