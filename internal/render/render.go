package render

import (
	"context"

	"listingcast/internal/listing"
	"listingcast/internal/progress"
)

// VoiceSynthesizer writes narration audio for a script.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, script string, out string, reporter progress.Reporter) error
}

// VideoInput gathers the artifacts a composer combines.
type VideoInput struct {
	Slides    []string
	Audio     string
	Subtitles string
	Thumbnail string
}

// VideoComposer combines slide frames, narration and subtitles into a video file.
type VideoComposer interface {
	Compose(ctx context.Context, input VideoInput, out string, reporter progress.Reporter) error
}

// DeckArtifact locates a rendered slide deck.
type DeckArtifact struct {
	Document string
	Frames   []string
}

// SlideRenderer writes a slide deck into dir.
type SlideRenderer interface {
	Render(ctx context.Context, deck listing.Deck, dir string) (DeckArtifact, error)
}

// Thumbnail is the text drawn onto a thumbnail image.
type Thumbnail struct {
	Address string
	Price   string
	Trend   string
	Brand   string
	Notice  string
}

// ThumbnailFromProperty builds thumbnail text for p.
func ThumbnailFromProperty(p listing.Property, brand string) Thumbnail {
	return Thumbnail{
		Address: p.Address,
		Price:   "평균 " + p.AveragePrice,
		Trend:   p.PriceTrend + " 추세",
		Brand:   brand,
		Notice:  p.Notice,
	}
}

// ThumbnailRenderer writes a thumbnail image to out.
type ThumbnailRenderer interface {
	Render(ctx context.Context, thumb Thumbnail, out string) error
}

func report(r progress.Reporter, message string, sub int) {
	if r != nil {
		r.Substep(message, sub)
	}
}
