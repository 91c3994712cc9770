package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"listingcast/internal/listing"
	"listingcast/internal/logging"
)

var (
	colorPrimary    = mustHex(listing.ColorPrimary)
	colorSecondary  = mustHex(listing.ColorSecondary)
	colorAccent     = mustHex(listing.ColorAccent)
	colorWarning    = mustHex(listing.ColorWarning)
	colorText       = mustHex(listing.ColorText)
	colorBackground = mustHex(listing.ColorBackground)
	colorWhite      = mustHex("#FFFFFF")
)

// ImageThumbnail draws a branded 1280x720 thumbnail.
type ImageThumbnail struct {
	// Background is an optional photo drawn behind the text.
	Background string
	Logger     *slog.Logger
}

// Render implements ThumbnailRenderer.
func (t ImageThumbnail) Render(_ context.Context, thumb Thumbnail, out string) error {
	canvas := t.canvas()
	canvas.CenteredText(thumb.Address, 140, 6, colorWhite)
	canvas.CenteredText(thumb.Price, 300, 5, colorSecondary)
	canvas.CenteredText(thumb.Trend, 420, 4, colorAccent)
	canvas.CenteredText(thumb.Brand, 540, 4, colorWhite)
	if thumb.Notice != "" {
		notice := Wrap(thumb.Notice, 80)
		if len(notice) > 2 {
			notice = notice[:2]
		}
		canvas.Lines(notice, 40, 640, 2, colorWarning)
	}
	if err := canvas.Save(out); err != nil {
		return fmt.Errorf("thumbnail: %w", err)
	}
	return nil
}

func (t ImageThumbnail) canvas() *Canvas {
	if t.Background == "" {
		return NewCanvas(FrameWidth, FrameHeight, colorPrimary)
	}
	if _, err := os.Stat(t.Background); err == nil {
		canvas, err := NewPhotoCanvas(t.Background, FrameWidth, FrameHeight)
		if err == nil {
			return canvas
		}
		logging.WarnWithContext(t.Logger, "thumbnail background unreadable; using brand colour", "thumbnail_background_failed",
			logging.String("path", t.Background),
			logging.Error(err),
			logging.String(logging.FieldImpact, "thumbnail drawn on plain background"),
			logging.String(logging.FieldErrorHint, "check render.thumbnail_background"),
		)
	}
	return NewCanvas(FrameWidth, FrameHeight, colorPrimary)
}
