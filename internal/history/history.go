// Package history records the channel decisions of engine runs so that
// priorities can be tuned against how often sounds actually lose a channel.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/engine"
)

// Run is one invocation that drove an engine.
type Run struct {
	ID         int64
	Command    string
	Channels   int
	StartedAt  time.Time
	FinishedAt time.Time // zero while running or if the run was cut short
}

// Event is one stored request transition.
type Event struct {
	RunID     int64
	Time      domain.WorldTime
	Handle    string
	SoundID   domain.SoundID
	SoundName string
	From      domain.RequestState
	To        domain.RequestState
	Sample    string
	Err       string
}

// SoundStats totals the outcomes of one sound across all runs.
type SoundStats struct {
	SoundID    domain.SoundID
	Name       string
	Played     int
	Completed  int
	Evicted    int
	Superseded int
	Failed     int
}

// Requests is how many requests for the sound reached a decision.
func (s SoundStats) Requests() int {
	return s.Played + s.Evicted + s.Failed
}

// LossRate is the share of requests that never got or kept a channel.
func (s SoundStats) LossRate() float64 {
	if s.Requests() == 0 {
		return 0
	}
	return float64(s.Evicted+s.Superseded) / float64(s.Requests())
}

// RunNotFoundError is returned for an unknown run id.
type RunNotFoundError struct {
	ID int64
}

// Error implements the error interface.
func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run %d not found", e.ID)
}

// Repository persists runs and their events.
type Repository interface {
	StartRun(ctx context.Context, command string, channels int, at time.Time) (Run, error)
	FinishRun(ctx context.Context, id int64, at time.Time) error
	Append(ctx context.Context, events []Event) error
	Runs(ctx context.Context, limit int) ([]Run, error)
	Events(ctx context.Context, runID int64) ([]Event, error)
	Stats(ctx context.Context) ([]SoundStats, error)
}

// Recorder writes the tick reports of one run.
type Recorder struct {
	repo  Repository
	run   Run
	names func(domain.SoundID) string
}

// Start begins a run. names labels sounds in the stored events; it may be nil.
func Start(ctx context.Context, repo Repository, command string, channels int, names func(domain.SoundID) string) (*Recorder, error) {
	run, err := repo.StartRun(ctx, command, channels, time.Now())
	if err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}
	if names == nil {
		names = func(domain.SoundID) string { return "" }
	}
	return &Recorder{repo: repo, run: run, names: names}, nil
}

// Run returns the run being recorded.
func (r *Recorder) Run() Run { return r.run }

// Record stores the transitions of report.
func (r *Recorder) Record(ctx context.Context, report engine.TickReport) error {
	if report.Empty() {
		return nil
	}
	events := make([]Event, 0, len(report.Transitions))
	for _, t := range report.Transitions {
		ev := Event{
			RunID:     r.run.ID,
			Time:      report.Time,
			Handle:    t.Sound.Handle.String(),
			SoundID:   t.Sound.SoundID,
			SoundName: r.names(t.Sound.SoundID),
			From:      t.From,
			To:        t.To,
			Sample:    t.Sample,
		}
		if t.Err != nil {
			ev.Err = t.Err.Error()
		}
		events = append(events, ev)
	}
	return r.repo.Append(ctx, events)
}

// Finish marks the run complete.
func (r *Recorder) Finish(ctx context.Context) error {
	return r.repo.FinishRun(ctx, r.run.ID, time.Now())
}
