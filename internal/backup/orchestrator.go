package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/muurk/wled-backup/internal/discovery"
	"github.com/muurk/wled-backup/internal/logging"
	"github.com/muurk/wled-backup/internal/snapshot"
	"github.com/muurk/wled-backup/internal/wled"
)

const (
	// DefaultMaxParallel bounds how many devices are contacted at once
	DefaultMaxParallel = 4

	// DefaultTimeout bounds the whole backup of one device
	DefaultTimeout = 10 * time.Second
)

// Fetcher retrieves one artifact from a device
type Fetcher interface {
	Fetch(ctx context.Context, device *discovery.Device, artifact wled.Artifact) ([]byte, error)
}

// Writer persists one artifact and returns the path written
type Writer interface {
	Write(ctx context.Context, device *discovery.Device, runAt time.Time, artifact wled.Artifact, payload []byte) (string, error)
}

// Observer is notified when a device task starts and finishes
type Observer interface {
	OnStart(device *discovery.Device)
	OnFinish(outcome *Outcome)
}

// Orchestrator backs up a set of devices with bounded concurrency
type Orchestrator struct {
	Fetcher     Fetcher
	Writer      Writer
	MaxParallel int
	Timeout     time.Duration
	Artifacts   []wled.Artifact
	Observer    Observer
}

// Run backs up every unique device in devices and returns the finished run.
// There is exactly one outcome per unique device, whatever happens: a
// device that fails, times out, or never starts because ctx was canceled is
// recorded as failed. One device's failure never affects another.
func (o *Orchestrator) Run(ctx context.Context, run *Run, devices []*discovery.Device) *Run {
	devices = discovery.Dedupe(devices)

	limit := o.MaxParallel
	if limit <= 0 {
		limit = DefaultMaxParallel
	}

	results := make(chan *Outcome)
	collected := make(chan []*Outcome, 1)

	// Single collector owns the outcome slice
	go func() {
		outcomes := make([]*Outcome, 0, len(devices))
		for outcome := range results {
			outcomes = append(outcomes, outcome)
		}
		collected <- outcomes
	}()

	// The group has no context: task errors are never returned, so one
	// failure cannot cancel the others
	var g errgroup.Group
	g.SetLimit(limit)

	for _, device := range devices {
		// Once the run is canceled, remaining devices are recorded without
		// being contacted. g.Go blocks for a slot, so the task checks again.
		if err := ctx.Err(); err != nil {
			results <- canceledOutcome(device, err)
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results <- canceledOutcome(device, err)
				return nil
			}
			results <- o.backupDevice(ctx, run.StartedAt, device)
			return nil
		})
	}

	_ = g.Wait()
	close(results)

	run.Outcomes = <-collected
	sortOutcomes(run.Outcomes)
	run.FinishedAt = time.Now()
	return run
}

// backupDevice fetches every artifact, then writes them. Nothing is written
// unless all artifacts were retrieved.
func (o *Orchestrator) backupDevice(ctx context.Context, runAt time.Time, device *discovery.Device) *Outcome {
	if o.Observer != nil {
		o.Observer.OnStart(device)
	}

	start := time.Now()
	outcome := &Outcome{Device: device, Status: StatusFailed}
	defer func() {
		outcome.Duration = time.Since(start)
		logging.LogOutcome(device.Key(), string(outcome.Status), outcome.Files, outcome.Duration, outcome.Err)
		if o.Observer != nil {
			o.Observer.OnFinish(outcome)
		}
	}()

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	artifacts := o.Artifacts
	if len(artifacts) == 0 {
		artifacts = wled.DefaultArtifacts
	}

	payloads := make([][]byte, len(artifacts))
	for i, artifact := range artifacts {
		payload, err := o.Fetcher.Fetch(ctx, device, artifact)
		if err != nil {
			outcome.fail(err)
			return outcome
		}
		if artifact == wled.ArtifactConfig {
			outcome.DeviceName, _ = wled.DeviceName(payload)
		}
		payloads[i] = payload
		outcome.Bytes += int64(len(payload))
	}

	named := *device
	named.Name = outcome.DeviceName
	for i, artifact := range artifacts {
		path, err := o.Writer.Write(ctx, &named, runAt, artifact, payloads[i])
		if path != "" {
			outcome.Files = append(outcome.Files, path)
		}
		if err != nil {
			outcome.fail(err)
			return outcome
		}
	}

	outcome.Status = StatusSucceeded
	return outcome
}

func (o *Outcome) fail(err error) {
	o.Status = StatusFailed
	o.Err = err
	o.Detail = describe(err)
}

func canceledOutcome(device *discovery.Device, err error) *Outcome {
	wrapped := fmt.Errorf("backup not started: %w", err)
	outcome := &Outcome{Device: device, Status: StatusFailed}
	outcome.fail(wrapped)
	logging.LogOutcome(device.Key(), string(outcome.Status), nil, 0, wrapped)
	return outcome
}

// describe returns a one-line failure detail for the summary
func describe(err error) string {
	var writeErr *snapshot.WriteError
	if errors.As(err, &writeErr) && writeErr.Op == "mirror" {
		return "Mirror upload failed: " + writeErr.Err.Error()
	}

	var fetchErr *wled.FetchError
	switch {
	case errors.As(err, &fetchErr):
		return wled.GetShortErrorMessage(err)
	case errors.Is(err, context.Canceled):
		return "Backup canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Device not responding (timeout)"
	case writeErr != nil:
		return fmt.Sprintf("Write failed (%s): %v", writeErr.Op, writeErr.Err)
	default:
		return err.Error()
	}
}
