package monitor

import (
	"time"

	"listingcast/internal/pipeline"
)

// Activity describes the row being processed.
type Activity struct {
	ItemID    int64     `json:"item_id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message,omitempty"`
	Percent   int       `json:"percent"`
	StartedAt time.Time `json:"started_at"`
}

// Status is a point-in-time snapshot of the monitor.
type Status struct {
	Running        bool             `json:"running"`
	WorkerAlive    bool             `json:"worker_alive"`
	LastCheck      time.Time        `json:"last_check,omitzero"`
	CheckInterval  time.Duration    `json:"check_interval"`
	ProcessedCount int              `json:"processed_count"`
	SourceRef      string           `json:"source_ref,omitempty"`
	Current        *Activity        `json:"current,omitempty"`
	LastError      string           `json:"last_error,omitempty"`
	LastResult     *pipeline.Result `json:"last_result,omitempty"`
}

// Status returns the latest monitor information.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := Status{
		Running:        m.running,
		WorkerAlive:    m.workerAlive,
		LastCheck:      m.lastCheck,
		CheckInterval:  m.settings.CheckInterval,
		ProcessedCount: len(m.processed),
		SourceRef:      m.sourceRef,
	}
	if m.lastErr != nil {
		status.LastError = m.lastErr.Error()
	}
	if m.current != nil {
		current := *m.current
		status.Current = &current
	}
	if m.lastResult != nil {
		last := *m.lastResult
		status.LastResult = &last
	}
	return status
}

func (m *Monitor) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Monitor) setCurrent(activity *Activity) {
	m.mu.Lock()
	m.current = activity
	m.mu.Unlock()
}

func (m *Monitor) setLastResult(result pipeline.Result) {
	m.mu.Lock()
	m.lastResult = &result
	m.mu.Unlock()
}
