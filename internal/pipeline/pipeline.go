package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"listingcast/internal/history"
	"listingcast/internal/listing"
	"listingcast/internal/logging"
	"listingcast/internal/metrics"
	"listingcast/internal/progress"
	"listingcast/internal/render"
	"listingcast/internal/services"
	"listingcast/internal/workqueue"
)

// statusMessageLimit caps error text written back to the queue.
const statusMessageLimit = 100

// Options wires the pipeline's collaborators.
type Options struct {
	Collector  listing.Collector
	Branding   listing.Branding
	Renderers  *render.Registry
	Publisher  Publisher
	Status     StatusWriter
	History    Recorder
	Metrics    *metrics.Metrics
	Stages     progress.Stages
	OutputDir  string
	Tags       []string
	CueSeconds int
	MaxCues    int
	Logger     *slog.Logger
	Now        func() time.Time
	NewRunID   func() string
}

// Pipeline runs jobs. It holds no per-run state, but callers are expected
// to run one job at a time.
type Pipeline struct {
	collector  listing.Collector
	branding   listing.Branding
	renderers  *render.Registry
	publisher  Publisher
	status     StatusWriter
	history    Recorder
	metrics    *metrics.Metrics
	stages     progress.Stages
	outputDir  string
	tags       []string
	cueSeconds int
	maxCues    int
	logger     *slog.Logger
	now        func() time.Time
	newRunID   func() string
}

// New builds a pipeline, filling unset collaborators with mocks.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		collector:  opts.Collector,
		branding:   opts.Branding,
		renderers:  opts.Renderers,
		publisher:  opts.Publisher,
		status:     opts.Status,
		history:    opts.History,
		metrics:    opts.Metrics,
		stages:     opts.Stages,
		outputDir:  opts.OutputDir,
		tags:       opts.Tags,
		cueSeconds: opts.CueSeconds,
		maxCues:    opts.MaxCues,
		logger:     logging.NewComponentLogger(opts.Logger, "pipeline"),
		now:        opts.Now,
		newRunID:   opts.NewRunID,
	}
	if p.collector == nil {
		p.collector = listing.MockCollector{}
	}
	if p.renderers == nil {
		p.renderers = render.Mock()
	}
	if len(p.stages) == 0 {
		p.stages = progress.Default()
	}
	if p.outputDir == "" {
		p.outputDir = os.TempDir()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}
	return p
}

// Run executes all stages for job and returns the outcome. It never panics
// and never returns an error; failures are carried in the Result.
func (p *Pipeline) Run(ctx context.Context, job Job, observer progress.Observer) Result {
	if job.Category == "" {
		job.Category = workqueue.DefaultCategory
	}
	runID := p.newRunID()
	ctx = services.WithRunID(ctx, runID)
	if job.HasItem {
		ctx = services.WithItemID(ctx, job.ItemID)
	}
	logger := logging.WithContext(ctx, p.logger).With(logging.String(logging.FieldSubject, job.Subject))
	tracker := progress.NewTracker(p.stages, observer, logger)

	result := Result{
		RunID:        runID,
		SourceItemID: job.ItemID,
		HasItem:      job.HasItem,
		Subject:      job.Subject,
		StartedAt:    p.now(),
	}
	logger.Info("pipeline run started",
		logging.String("category", job.Category),
		logging.Bool("from_queue", job.HasItem),
		logging.String(logging.FieldEventType, "pipeline_start"),
	)

	r := &run{p: p, runID: runID, job: job, tracker: tracker, logger: logger, artifacts: make(map[ArtifactKind]string)}
	err := r.execute(ctx)

	// Final writes must land even when the run was interrupted by shutdown.
	finalCtx := context.WithoutCancel(ctx)
	if err != nil {
		result.Outcome = OutcomeFailure
		result.Error = err.Error()
		logger.Error("pipeline run failed",
			logging.Error(err),
			logging.String(logging.FieldStage, p.stages.Key(tracker.Stage())),
			logging.String(logging.FieldEventType, "pipeline_failed"),
			logging.String(logging.FieldErrorHint, failureHint(err)),
			logging.Alert("pipeline_failure"),
		)
		if job.HasItem && p.status != nil {
			p.status.UpdateStatus(finalCtx, job.ItemID, workqueue.StatusError, services.Truncate(result.Error, statusMessageLimit))
		}
	} else {
		tracker.Update(progress.Finalize, "", 0)
		result.Outcome = OutcomeSuccess
		result.Artifacts = r.artifacts
		result.PublishedReference = r.reference
		if job.HasItem && p.status != nil {
			p.status.UpdateStatus(finalCtx, job.ItemID, workqueue.StatusDone, r.reference)
		}
		tracker.Update(progress.Finalize, "complete", 100)
		logger.Info("pipeline run completed",
			logging.String("reference", r.reference),
			logging.String("video", r.artifacts[ArtifactVideo]),
			logging.String(logging.FieldEventType, "pipeline_complete"),
		)
	}
	result.FinishedAt = p.now()

	p.metrics.PipelineRun(string(result.Outcome))
	p.record(finalCtx, logger, result, job)
	return result
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, result Result, job Job) {
	if p.history == nil {
		return
	}
	artifacts := make(map[string]string, len(result.Artifacts))
	for kind, path := range result.Artifacts {
		artifacts[string(kind)] = path
	}
	err := p.history.Record(ctx, history.Run{
		RunID:      result.RunID,
		ItemID:     job.ItemID,
		HasItem:    job.HasItem,
		Subject:    job.Subject,
		Category:   job.Category,
		Outcome:    string(result.Outcome),
		Reference:  result.PublishedReference,
		Error:      result.Error,
		Artifacts:  artifacts,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	})
	if err != nil {
		logging.WarnWithContext(logger, "failed to record run history", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from `listingcast history`"),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
		)
	}
}

// runDir returns output_dir/<yyyymmdd>/<run id prefix>.
func (p *Pipeline) runDir(runID string) string {
	prefix := runID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return filepath.Join(p.outputDir, p.now().Format("20060102"), prefix)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrCancelled):
		return "approve the upload or enable unattended publishing"
	case errors.Is(err, services.ErrConfiguration):
		return "check the configuration file"
	case errors.Is(err, context.Canceled):
		return "run interrupted by shutdown; the row is marked as error"
	default:
		return "check logs for the failing stage"
	}
}

// cancelledError reports an operator decline at the publish gate.
type cancelledError struct {
	message string
}

func (e cancelledError) Error() string { return e.message }

func (e cancelledError) Unwrap() error { return services.ErrCancelled }

// panicError wraps a value recovered from a stage.
func panicError(value any) error {
	return fmt.Errorf("panic: %v", value)
}
