package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"listingcast/internal/config"
	"listingcast/internal/deps"
	"listingcast/internal/history"
	"listingcast/internal/logging"
	"listingcast/internal/metrics"
	"listingcast/internal/monitor"
	"listingcast/internal/notifications"
	"listingcast/internal/pipeline"
	"listingcast/internal/publish"
	"listingcast/internal/render"
	"listingcast/internal/services"
	"listingcast/internal/workqueue"
)

// Daemon coordinates the background services and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	queue     Queue
	lister    func() (Queue, error)
	history   *history.Store
	ownsStore bool
	metrics   *metrics.Metrics
	notifier  notifications.Service
	renderers *render.Registry
	gate      *publish.ApprovalGate
	sink      *publish.Sink
	runner    *serialRunner
	monitor   *monitor.Monitor
	api       *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool            `json:"running"`
	PID              int             `json:"pid"`
	Monitor          monitor.Status  `json:"monitor"`
	Unattended       bool            `json:"unattended"`
	PublishBackend   string          `json:"publish_backend"`
	QueueStrategy    string          `json:"queue_strategy"`
	PendingApprovals int             `json:"pending_approvals"`
	History          history.Stats   `json:"history"`
	Backends         []render.Choice `json:"backends"`
	Dependencies     []deps.Status   `json:"dependencies"`
	LockFilePath     string          `json:"lock_file_path"`
	HistoryPath      string          `json:"history_path"`
}

// New constructs a daemon, building any component not supplied.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, components Components) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	ownsStore, err := components.build(ctx, cfg, logger)
	if err != nil {
		if ownsStore {
			_ = components.History.Close()
		}
		return nil, err
	}

	gate := publish.NewApprovalGate(cfg.ConfirmTimeout(), logger)
	sink := publish.NewSink(publish.SinkOptions{
		Client:     components.Client,
		Gate:       gate,
		Unattended: cfg.Publish.Unattended,
		Logger:     logger,
		Metrics:    components.Metrics,
	})
	runner := &serialRunner{runner: newPipeline(cfg, components, sink, logger)}
	mon := monitor.New(components.Queue, runner, monitor.SettingsFromConfig(cfg),
		monitor.WithLogger(logger),
		monitor.WithNotifier(components.Notifier),
		monitor.WithMetrics(components.Metrics),
	)

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		queue:     components.Queue,
		lister:    components.QueueLister,
		history:   components.History,
		ownsStore: ownsStore,
		metrics:   components.Metrics,
		notifier:  components.Notifier,
		renderers: components.Renderers,
		gate:      gate,
		sink:      sink,
		runner:    runner,
		monitor:   mon,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, opens the HTTP API and, when configured,
// starts monitoring the default source.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another listingcast daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("listingcast daemon started",
		logging.String("lock", d.lockPath),
		logging.Bool("unattended", d.sink.Unattended()),
		logging.String("publish_backend", d.sink.Backend()),
	)

	if d.cfg.Monitor.Autostart && strings.TrimSpace(d.cfg.Queue.SourceRef) != "" {
		if _, err := d.StartMonitoring(""); err != nil {
			d.logger.Warn("monitor autostart failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "monitor_autostart_failed"),
				logging.String(logging.FieldErrorHint, "run `listingcast start --source REF`"),
			)
		}
	}
	return nil
}

// Stop stops monitoring and the API, then releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.monitor.Stop()
	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("listingcast daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.ownsStore && d.history != nil {
		return d.history.Close()
	}
	return nil
}

// StartMonitoring starts the loop on ref, or on queue.source_ref when ref
// is empty. It returns false when the loop was already running.
func (d *Daemon) StartMonitoring(ref string) (bool, error) {
	if !d.running.Load() || d.ctx == nil {
		return false, errors.New("daemon not running")
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = strings.TrimSpace(d.cfg.Queue.SourceRef)
	}
	if ref == "" {
		return false, services.Wrap(services.ErrValidation, "daemon", "start monitoring", "no source reference given and queue.source_ref is empty", nil)
	}
	return d.monitor.Start(d.ctx, ref), nil
}

// StopMonitoring stops the loop and reports whether it was running.
func (d *Daemon) StopMonitoring() bool {
	wasRunning := d.monitor.Running()
	d.monitor.Stop()
	return wasRunning
}

// RunOnce runs the pipeline for job on the caller's goroutine. It waits for
// any monitor run in progress to finish first.
func (d *Daemon) RunOnce(ctx context.Context, job pipeline.Job) pipeline.Result {
	if strings.TrimSpace(job.Subject) == "" {
		return pipeline.Result{Outcome: pipeline.OutcomeFailure, Error: "address is required"}
	}
	return d.runner.Run(ctx, job, nil)
}

// SetUnattended toggles unattended publishing.
func (d *Daemon) SetUnattended(enabled bool) {
	d.sink.SetUnattended(enabled)
}

// Approvals lists uploads waiting for an operator decision.
func (d *Daemon) Approvals() []publish.Approval {
	return d.gate.Pending()
}

// Approve releases a parked upload.
func (d *Daemon) Approve(id int64) error {
	return d.gate.Approve(id)
}

// Reject cancels a parked upload.
func (d *Daemon) Reject(id int64) error {
	return d.gate.Reject(id)
}

// History returns the most recent runs.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Run, error) {
	return d.history.Recent(ctx, limit)
}

// ListQueue returns every row of the queue at ref, or queue.source_ref.
// Only the ref being monitored is read through the shared queue; any other
// ref gets a private connection that is closed afterwards.
func (d *Daemon) ListQueue(ctx context.Context, ref string) ([]workqueue.WorkItem, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = strings.TrimSpace(d.cfg.Queue.SourceRef)
	}
	if status := d.monitor.Status(); status.Running && status.SourceRef == ref {
		return d.queue.List(ctx, ref)
	}
	queue, err := d.lister()
	if err != nil {
		return nil, err
	}
	if closer, ok := queue.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				d.logger.Debug("queue listing close failed", logging.Error(err))
			}
		}()
	}
	return queue.List(ctx, ref)
}

// Seen reports whether the monitor has already handled item.
func (d *Daemon) Seen(item workqueue.WorkItem) bool {
	return d.monitor.Seen(item.Key())
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" && strings.TrimSpace(d.cfg.Notifications.SQSQueueURL) == "" {
		return false, "no notification sink configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Metrics returns the collectors, or nil when metrics are disabled.
func (d *Daemon) Metrics() *metrics.Metrics {
	return d.metrics
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.history.Stats(ctx)
	if err != nil {
		d.logger.Warn("failed to read history stats", logging.Error(err))
	}
	return Status{
		Running:          d.running.Load(),
		PID:              os.Getpid(),
		Monitor:          d.monitor.Status(),
		Unattended:       d.sink.Unattended(),
		PublishBackend:   d.sink.Backend(),
		QueueStrategy:    d.queue.Strategy(),
		PendingApprovals: len(d.gate.Pending()),
		History:          stats,
		Backends:         d.renderers.Describe(),
		Dependencies:     deps.CheckBinaries(deps.RenderRequirements(d.cfg.Render)),
		LockFilePath:     d.lockPath,
		HistoryPath:      d.history.Path(),
	}
}
