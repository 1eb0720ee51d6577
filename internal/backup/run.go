package backup

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/muurk/wled-backup/internal/discovery"
)

// Status is the result of backing up one device
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome records what happened to one device during a run
type Outcome struct {
	Device *discovery.Device
	Status Status

	// Files holds the paths written for the device, one per artifact.
	// It can be non-empty for a failed outcome when only the mirror failed.
	Files []string

	// DeviceName is id.name from cfg.json, empty if it was never parsed
	DeviceName string

	// Bytes is the total payload size retrieved
	Bytes int64

	// Err and Detail describe the failure; both are empty on success.
	// Detail is short enough for a one-line summary.
	Err    error
	Detail string

	Duration time.Duration
}

// Succeeded reports whether every artifact was retrieved and persisted
func (o *Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}

// Run is one discovery and backup pass
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	SearchWindow time.Duration
	OutDir       string

	// Outcomes holds exactly one entry per unique device, ordered by
	// device key
	Outcomes []*Outcome
}

// NewRun starts a run at startedAt
func NewRun(startedAt time.Time, searchWindow time.Duration, outDir string) *Run {
	return &Run{
		ID:           uuid.NewString(),
		StartedAt:    startedAt,
		SearchWindow: searchWindow,
		OutDir:       outDir,
	}
}

// Succeeded returns the number of devices backed up successfully
func (r *Run) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

// Failed returns the number of devices that could not be backed up
func (r *Run) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// OK reports whether no device failed. A run with no devices is OK.
func (r *Run) OK() bool {
	return r.Failed() == 0
}

// Bytes returns the total payload size retrieved across all devices
func (r *Run) Bytes() int64 {
	var total int64
	for _, o := range r.Outcomes {
		total += o.Bytes
	}
	return total
}

// Duration returns how long the run took, or zero if it has not finished
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func sortOutcomes(outcomes []*Outcome) {
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Device.Key() < outcomes[j].Device.Key()
	})
}
