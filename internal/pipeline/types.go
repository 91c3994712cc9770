package pipeline

import (
	"context"
	"time"

	"listingcast/internal/history"
	"listingcast/internal/progress"
	"listingcast/internal/publish"
	"listingcast/internal/workqueue"
)

// Job is one pipeline invocation.
type Job struct {
	Subject    string `json:"subject"`
	Category   string `json:"category,omitempty"`
	Annotation string `json:"annotation,omitempty"`
	ItemID     int64  `json:"item_id,omitempty"`
	HasItem    bool   `json:"has_item"`
}

// JobFromItem builds a job bound to a queue row.
func JobFromItem(item workqueue.WorkItem) Job {
	return Job{
		Subject:    item.Subject,
		Category:   item.Category,
		Annotation: item.Annotation,
		ItemID:     item.ID,
		HasItem:    true,
	}
}

// ArtifactKind names one generated file.
type ArtifactKind string

// Artifact kinds.
const (
	ArtifactVideo     ArtifactKind = "video"
	ArtifactScript    ArtifactKind = "script"
	ArtifactSlides    ArtifactKind = "slides"
	ArtifactNarration ArtifactKind = "narration"
	ArtifactSubtitles ArtifactKind = "subtitles"
	ArtifactThumbnail ArtifactKind = "thumbnail"
)

// Outcome is the result class of a run.
type Outcome string

// Outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Result is returned to the caller and not retained by the pipeline.
// On failure Artifacts is empty even if files were written.
type Result struct {
	RunID              string                  `json:"run_id"`
	Artifacts          map[ArtifactKind]string `json:"artifacts,omitempty"`
	PublishedReference string                  `json:"published_reference,omitempty"`
	Outcome            Outcome                 `json:"outcome"`
	Error              string                  `json:"error,omitempty"`
	SourceItemID       int64                   `json:"source_item_id,omitempty"`
	HasItem            bool                    `json:"has_item"`
	Subject            string                  `json:"subject"`
	StartedAt          time.Time               `json:"started_at"`
	FinishedAt         time.Time               `json:"finished_at"`
}

// Succeeded reports whether the run completed.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Runner is what the monitoring loop and daemon call.
type Runner interface {
	Run(ctx context.Context, job Job, observer progress.Observer) Result
}

// StatusWriter writes item status back to the queue. It must not fail loudly.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id int64, status workqueue.Status, reference string)
}

// Publisher uploads the finished video.
type Publisher interface {
	Publish(ctx context.Context, req publish.Request, reporter progress.Reporter) (bool, string)
}

// Recorder keeps the run ledger.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}
