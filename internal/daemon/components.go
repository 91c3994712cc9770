package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"listingcast/internal/config"
	"listingcast/internal/history"
	"listingcast/internal/listing"
	"listingcast/internal/metrics"
	"listingcast/internal/monitor"
	"listingcast/internal/notifications"
	"listingcast/internal/pipeline"
	"listingcast/internal/progress"
	"listingcast/internal/publish"
	"listingcast/internal/render"
	"listingcast/internal/workqueue"
)

// Queue is the work-queue surface the daemon drives.
type Queue interface {
	monitor.Queue
	List(ctx context.Context, ref string) ([]workqueue.WorkItem, error)
	Strategy() string
}

// Components overrides collaborators that would otherwise be built from
// configuration. Zero fields are built by New.
type Components struct {
	Queue Queue
	// QueueLister opens a private queue for listings of refs other than the
	// one being monitored, so they never rebind the shared connection.
	QueueLister func() (Queue, error)
	Collector listing.Collector
	Renderers *render.Registry
	Client    publish.Client
	History   *history.Store
	Notifier  notifications.Service
	Metrics   *metrics.Metrics
}

// build fills every unset component from cfg. It reports whether the
// history store was opened here and must be closed by the daemon.
func (c *Components) build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (bool, error) {
	if c.Metrics == nil && cfg.Metrics.Enabled {
		c.Metrics = metrics.New()
	}
	ownsHistory := false
	if c.History == nil {
		store, err := history.Open(cfg)
		if err != nil {
			return false, fmt.Errorf("open history: %w", err)
		}
		c.History = store
		ownsHistory = true
	}
	if c.Queue == nil {
		source, err := workqueue.NewSourceFromConfig(cfg, logger, c.Metrics)
		if err != nil {
			return ownsHistory, fmt.Errorf("build queue source: %w", err)
		}
		c.Queue = source
	}
	if c.QueueLister == nil {
		c.QueueLister = func() (Queue, error) {
			return workqueue.NewSourceFromConfig(cfg, logger, nil)
		}
	}
	httpClient := &http.Client{Timeout: cfg.QueueTimeout()}
	if c.Collector == nil {
		c.Collector = listing.NewCollector(cfg.Listing, httpClient, logger)
	}
	if c.Renderers == nil {
		c.Renderers = render.NewRegistry(cfg.Render, logger)
	}
	if c.Client == nil {
		client, err := publish.NewClient(ctx, cfg.Publish, &http.Client{}, logger)
		if err != nil {
			return ownsHistory, fmt.Errorf("build publish client: %w", err)
		}
		c.Client = client
	}
	if c.Notifier == nil {
		c.Notifier = notifications.NewService(ctx, cfg, logger)
	}
	return ownsHistory, nil
}

func newPipeline(cfg *config.Config, c Components, sink *publish.Sink, logger *slog.Logger) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		Collector:  c.Collector,
		Branding:   listing.BrandingFromConfig(cfg.Branding),
		Renderers:  c.Renderers,
		Publisher:  sink,
		Status:     c.Queue,
		History:    c.History,
		Metrics:    c.Metrics,
		Stages:     progress.Default(),
		OutputDir:  cfg.Paths.OutputDir,
		Tags:       cfg.Publish.Tags,
		CueSeconds: cfg.Render.CueSeconds,
		MaxCues:    cfg.Render.MaxCues,
		Logger:     logger,
	})
}

// Standalone builds a pipeline for one-off runs outside the daemon. Uploads
// go through gate unless unattended is set. The returned func closes the
// history store when it was opened here.
func Standalone(ctx context.Context, cfg *config.Config, logger *slog.Logger, c Components, gate publish.Gate, unattended bool) (*pipeline.Pipeline, func() error, error) {
	ownsHistory, err := c.build(ctx, cfg, logger)
	closer := func() error {
		if ownsHistory && c.History != nil {
			return c.History.Close()
		}
		return nil
	}
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	sink := publish.NewSink(publish.SinkOptions{
		Client:     c.Client,
		Gate:       gate,
		Unattended: unattended,
		Logger:     logger,
		Metrics:    c.Metrics,
	})
	return newPipeline(cfg, c, sink, logger), closer, nil
}

// serialRunner keeps manual runs and monitor runs from overlapping.
type serialRunner struct {
	mu     sync.Mutex
	runner pipeline.Runner
}

func (s *serialRunner) Run(ctx context.Context, job pipeline.Job, observer progress.Observer) pipeline.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Run(ctx, job, observer)
}
