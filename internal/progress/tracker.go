package progress

import (
	"fmt"
	"log/slog"
	"sync"

	"listingcast/internal/logging"
)

// Observer receives every progress update. Errors and panics are logged and ignored.
type Observer func(message string, percent int) error

// Reporter is the narrow view handed to rendering and publish backends.
type Reporter interface {
	Substep(message string, sub int)
}

// Tracker forwards stage updates to the log and an optional observer.
type Tracker struct {
	stages   Stages
	observer Observer
	logger   *slog.Logger

	mu      sync.Mutex
	current int
	percent int
}

// NewTracker builds a tracker over stages. A nil observer only logs.
func NewTracker(stages Stages, observer Observer, logger *slog.Logger) *Tracker {
	if len(stages) == 0 {
		stages = Default()
	}
	return &Tracker{
		stages:   stages,
		observer: observer,
		logger:   logging.NewComponentLogger(logger, "progress"),
	}
}

// Update records stage as current and reports the overall percentage.
// An empty message uses the stage label.
func (t *Tracker) Update(stage int, message string, sub int) int {
	if message == "" {
		message = t.stages.Label(stage)
	}
	percent := Percent(stage, sub, len(t.stages))

	t.mu.Lock()
	t.current = stage
	t.percent = percent
	t.mu.Unlock()

	t.logger.Info(message,
		logging.String(logging.FieldStage, t.stages.Key(stage)),
		logging.Int(logging.FieldProgressPercent, percent),
	)
	t.notify(message, percent)
	return percent
}

// Substep reports progress within the last stage passed to Update.
func (t *Tracker) Substep(message string, sub int) {
	t.Update(t.Stage(), message, sub)
}

// Stage returns the last stage passed to Update.
func (t *Tracker) Stage() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Percent returns the last reported overall percentage.
func (t *Tracker) Percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

// Stages exposes the tracker's stage table.
func (t *Tracker) Stages() Stages {
	return t.stages
}

func (t *Tracker) notify(message string, percent int) {
	if t.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.WarnWithContext(t.logger, "progress observer panicked", "progress_observer_failed",
				logging.String("error", fmt.Sprint(r)),
				logging.String(logging.FieldImpact, "progress update not delivered"),
			)
		}
	}()
	if err := t.observer(message, percent); err != nil {
		logging.WarnWithContext(t.logger, "progress observer failed", "progress_observer_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "progress update not delivered"),
		)
	}
}
