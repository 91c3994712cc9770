package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"listingcast/internal/listing"
)

// DeckDocumentName is the file name of the plain-text deck inside a run directory.
const DeckDocumentName = "slides.txt"

// TextSlides writes only the plain-text deck document.
type TextSlides struct{}

// Render implements SlideRenderer.
func (TextSlides) Render(_ context.Context, deck listing.Deck, dir string) (DeckArtifact, error) {
	doc, err := writeDocument(deck, dir)
	if err != nil {
		return DeckArtifact{}, err
	}
	return DeckArtifact{Document: doc}, nil
}

// ImageSlides writes the deck document plus one PNG frame per slide.
type ImageSlides struct{}

// Render implements SlideRenderer.
func (ImageSlides) Render(ctx context.Context, deck listing.Deck, dir string) (DeckArtifact, error) {
	doc, err := writeDocument(deck, dir)
	if err != nil {
		return DeckArtifact{}, err
	}
	artifact := DeckArtifact{Document: doc}
	for i, slide := range deck.Slides {
		if err := ctx.Err(); err != nil {
			return DeckArtifact{}, err
		}
		frame := filepath.Join(dir, fmt.Sprintf("slide_%02d.png", i+1))
		if err := drawSlide(slide, frame); err != nil {
			return DeckArtifact{}, err
		}
		artifact.Frames = append(artifact.Frames, frame)
	}
	return artifact, nil
}

func writeDocument(deck listing.Deck, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create deck directory: %w", err)
	}
	path := filepath.Join(dir, DeckDocumentName)
	if err := os.WriteFile(path, []byte(deck.Document()), 0o644); err != nil {
		return "", fmt.Errorf("write deck document: %w", err)
	}
	return path, nil
}

func drawSlide(slide listing.Slide, out string) error {
	canvas := NewCanvas(FrameWidth, FrameHeight, colorBackground)
	titleColor := colorPrimary
	if slide.Title == listing.NoticeSlideTitle {
		titleColor = colorWarning
	}
	canvas.Text(slide.Title, 60, 60, 4, titleColor)
	canvas.Lines(Wrap(slide.Body, 70), 60, 180, 2, colorText)
	if err := canvas.Save(out); err != nil {
		return fmt.Errorf("slide frame: %w", err)
	}
	return nil
}
