package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"listingcast/internal/listing"
	"listingcast/internal/logging"
	"listingcast/internal/progress"
	"listingcast/internal/publish"
	"listingcast/internal/render"
	"listingcast/internal/services"
)

// Artifact file names inside a run directory.
const (
	scriptFile    = "script.txt"
	thumbnailFile = "thumbnail.jpg"
	narrationFile = "narration.wav"
	subtitleFile  = "subtitles.srt"
	videoFile     = "video.mp4"
	slidesDir     = "slides"
)

// run carries the state of one Run invocation.
type run struct {
	p       *Pipeline
	runID   string
	job     Job
	tracker *progress.Tracker
	logger  *slog.Logger

	dir       string
	property  listing.Property
	script    listing.Script
	deck      render.DeckArtifact
	artifacts map[ArtifactKind]string
	reference string
}

type stageFunc func(ctx context.Context) error

func (r *run) execute(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = panicError(recovered)
		}
	}()

	steps := []struct {
		index int
		fn    stageFunc
	}{
		{progress.Initialize, r.initialize},
		{progress.Collect, r.collect},
		{progress.Script, r.writeScript},
		{progress.Slides, r.renderSlides},
		{progress.Thumbnail, r.renderThumbnail},
		{progress.Narration, r.synthesizeNarration},
		{progress.Subtitles, r.writeSubtitles},
		{progress.Video, r.composeVideo},
		{progress.Publish, r.publish},
	}
	for _, step := range steps {
		if err := r.runStage(ctx, step.index, step.fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) runStage(ctx context.Context, index int, fn stageFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := r.p.stages.Key(index)
	r.tracker.Update(index, "", 0)
	stageCtx := services.WithStage(ctx, key)
	started := time.Now()
	err := fn(stageCtx)
	r.p.metrics.ObserveStage(key, time.Since(started))
	if err != nil {
		return err
	}
	r.logger.Debug("stage finished",
		logging.String(logging.FieldStage, key),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (r *run) initialize(context.Context) error {
	r.dir = r.p.runDir(r.runID)
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "initialize", "create run directory", "could not create the output directory", err)
	}
	return nil
}

func (r *run) collect(ctx context.Context) error {
	property, err := r.p.collector.Collect(ctx, r.job.Subject, r.job.Category, r.job.Annotation)
	if err != nil {
		return services.Wrap(services.ErrTransient, "collect", "collect property", "could not collect listing data", err)
	}
	r.property = r.p.branding.Apply(property)
	return nil
}

func (r *run) writeScript(context.Context) error {
	script, err := listing.BuildScript(r.property, r.p.branding)
	if err != nil {
		return services.Wrap(services.ErrValidation, "script", "build script", "could not build the narration script", err)
	}
	path := filepath.Join(r.dir, scriptFile)
	if err := os.WriteFile(path, []byte(script.Text), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	r.script = script
	r.artifacts[ArtifactScript] = path
	r.tracker.Substep(fmt.Sprintf("script ready (%d words)", script.WordCount), 100)
	return nil
}

func (r *run) renderSlides(ctx context.Context) error {
	deck := listing.BuildDeck(r.property, r.p.branding)
	dir := filepath.Join(r.dir, slidesDir)
	artifact, err := r.p.renderers.Slides.Render(ctx, deck, dir)
	if err != nil && r.p.renderers.MockSlides != nil {
		r.degraded("slides", err)
		artifact, err = r.p.renderers.MockSlides.Render(ctx, deck, dir)
	}
	if err != nil {
		return fmt.Errorf("render slides: %w", err)
	}
	r.deck = artifact
	r.artifacts[ArtifactSlides] = artifact.Document
	return nil
}

func (r *run) renderThumbnail(ctx context.Context) error {
	if r.p.renderers.Thumbnail == nil {
		return nil
	}
	path := filepath.Join(r.dir, thumbnailFile)
	thumb := render.ThumbnailFromProperty(r.property, r.p.branding.Agency)
	if err := r.p.renderers.Thumbnail.Render(ctx, thumb, path); err != nil {
		// A missing thumbnail only loses the custom cover image.
		r.degraded("thumbnail", err)
		return nil
	}
	r.artifacts[ArtifactThumbnail] = path
	return nil
}

func (r *run) synthesizeNarration(ctx context.Context) error {
	path := filepath.Join(r.dir, narrationFile)
	err := r.p.renderers.Voice.Synthesize(ctx, r.script.Text, path, r.tracker)
	if err != nil && r.p.renderers.MockVoice != nil {
		r.degraded("narration", err)
		err = r.p.renderers.MockVoice.Synthesize(ctx, r.script.Text, path, r.tracker)
	}
	if err != nil {
		return fmt.Errorf("synthesize narration: %w", err)
	}
	r.artifacts[ArtifactNarration] = path
	return nil
}

func (r *run) writeSubtitles(context.Context) error {
	path := filepath.Join(r.dir, subtitleFile)
	srt := render.BuildSRT(r.script.Text, r.p.cueSeconds, r.p.maxCues)
	if err := os.WriteFile(path, []byte(srt), 0o644); err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	r.artifacts[ArtifactSubtitles] = path
	return nil
}

func (r *run) composeVideo(ctx context.Context) error {
	path := filepath.Join(r.dir, videoFile)
	input := render.VideoInput{
		Slides:    r.deck.Frames,
		Audio:     r.artifacts[ArtifactNarration],
		Subtitles: r.artifacts[ArtifactSubtitles],
		Thumbnail: r.artifacts[ArtifactThumbnail],
	}
	err := r.p.renderers.Video.Compose(ctx, input, path, r.tracker)
	if err != nil && r.p.renderers.MockVideo != nil {
		r.degraded("video", err)
		err = r.p.renderers.MockVideo.Compose(ctx, input, path, r.tracker)
	}
	if err != nil {
		return fmt.Errorf("compose video: %w", err)
	}
	r.artifacts[ArtifactVideo] = path
	return nil
}

func (r *run) publish(ctx context.Context) error {
	if r.p.publisher == nil {
		return nil
	}
	req := publish.Request{
		Subject:       r.job.Subject,
		VideoPath:     r.artifacts[ArtifactVideo],
		Title:         r.p.branding.Title(r.property.Address, r.property.Type),
		Description:   r.p.branding.Description(r.property, r.p.tags),
		Tags:          r.p.tags,
		ThumbnailPath: r.artifacts[ArtifactThumbnail],
	}
	ok, reference := r.p.publisher.Publish(ctx, req, r.tracker)
	switch {
	case ok:
		r.reference = reference
	case publish.IsCancellation(reference):
		return cancelledError{message: reference}
	default:
		logging.WarnWithContext(r.logger, "publish backend failed; keeping local video", "publish_degraded",
			logging.String("reason", reference),
			logging.String(logging.FieldImpact, "video not uploaded"),
			logging.String(logging.FieldErrorHint, "check publish backend credentials"),
		)
		r.reference = "publish failed: " + reference
	}
	return nil
}

func (r *run) degraded(capability string, err error) {
	logging.WarnWithContext(r.logger, capability+" backend failed; using mock artifact", capability+"_degraded",
		logging.Error(err),
		logging.String(logging.FieldImpact, "placeholder "+capability+" artifact"),
		logging.String(logging.FieldErrorHint, "run `listingcast status` to inspect backends"),
	)
}
