package monitor

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"listingcast/internal/config"
	"listingcast/internal/logging"
	"listingcast/internal/metrics"
	"listingcast/internal/notifications"
	"listingcast/internal/pipeline"
	"listingcast/internal/progress"
	"listingcast/internal/workqueue"
)

// Queue is the slice of workqueue.Source the loop needs.
type Queue interface {
	ListPending(ctx context.Context, ref string) ([]workqueue.WorkItem, error)
	UpdateStatus(ctx context.Context, id int64, status workqueue.Status, reference string)
}

// Settings holds the loop timing.
type Settings struct {
	CheckInterval time.Duration
	Cooldown      time.Duration
	ErrorBackoff  time.Duration
	// Tick is the sleep increment at which stop requests are observed.
	Tick time.Duration
}

// SettingsFromConfig reads the monitor section.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		CheckInterval: cfg.CheckInterval(),
		Cooldown:      cfg.Cooldown(),
		ErrorBackoff:  cfg.ErrorBackoff(),
		Tick:          cfg.Tick(),
	}
}

// Option configures optional Monitor behavior.
type Option func(*Monitor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

// WithNotifier sets the notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(m *Monitor) { m.notifier = notifier }
}

// WithMetrics records poll and item outcomes.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Monitor) { m.metrics = mx }
}

// WithObserver forwards pipeline progress for the active row.
func WithObserver(observer progress.Observer) Option {
	return func(m *Monitor) { m.observer = observer }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// Monitor owns the polling worker. Start and Stop may be called from any
// goroutine; the processed set is written only by the worker.
type Monitor struct {
	queue    Queue
	runner   pipeline.Runner
	settings Settings
	logger   *slog.Logger
	notifier notifications.Service
	metrics  *metrics.Metrics
	observer progress.Observer
	now      func() time.Time

	mu          sync.RWMutex
	running     bool
	workerAlive bool
	cancel      context.CancelFunc
	generation  uint64
	wg          sync.WaitGroup
	sourceRef   string
	lastCheck   time.Time
	lastErr     error
	current     *Activity
	lastResult  *pipeline.Result
	processed   map[string]struct{}
}

// New constructs a stopped monitor.
func New(queue Queue, runner pipeline.Runner, settings Settings, opts ...Option) *Monitor {
	m := &Monitor{
		queue:     queue,
		runner:    runner,
		settings:  settings,
		now:       time.Now,
		processed: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "monitor")
	if m.notifier == nil {
		m.notifier = notifications.NewNoop()
	}
	if m.settings.Tick <= 0 {
		m.settings.Tick = time.Second
	}
	return m
}

// Start launches the worker for sourceRef. It returns false, without error,
// when the monitor is already running. The worker stops when Stop is called
// or ctx ends.
func (m *Monitor) Start(ctx context.Context, sourceRef string) bool {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		logging.WarnWithContext(m.logger, "monitor already running; start ignored", "monitor_already_running",
			logging.String("source_ref", sourceRef),
			logging.String(logging.FieldImpact, "none"),
		)
		return false
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.workerAlive = true
	m.cancel = cancel
	m.sourceRef = sourceRef
	m.lastErr = nil
	m.generation++
	generation := m.generation
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Info("monitor started",
		logging.String("source_ref", sourceRef),
		logging.Duration("check_interval", m.settings.CheckInterval),
		logging.String(logging.FieldEventType, "monitor_start"),
	)
	if err := m.notifier.NotifyMonitorStarted(runCtx, sourceRef); err != nil {
		m.logger.Debug("monitor start notification failed", logging.Error(err))
	}

	go m.run(runCtx, sourceRef, generation)
	return true
}

// Stop asks the worker to exit and waits for it. The row in flight, if any,
// is cut short at its next stage boundary and written back as pending.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("monitor stopped", logging.String(logging.FieldEventType, "monitor_stop"))
}

// Running reports whether Start has been called without a matching Stop.
func (m *Monitor) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Processed returns a sorted snapshot of the composite keys handled since
// the process started.
func (m *Monitor) Processed() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.processed))
	for key := range m.processed {
		keys = append(keys, key)
	}
	m.mu.RUnlock()
	slices.Sort(keys)
	return keys
}

// Seen reports whether key is in the processed set.
func (m *Monitor) Seen(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.processed[key]
	return ok
}

func (m *Monitor) markSeen(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[key] = struct{}{}
}
