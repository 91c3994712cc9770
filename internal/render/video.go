package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"listingcast/internal/progress"
	"listingcast/internal/services"
)

// SlideSeconds is how long each slide frame is shown.
const SlideSeconds = 5

// mockVideoPadding is the number of zero bytes following the ftyp box.
const mockVideoPadding = 1024

// MockVideo writes a minimal MP4 ftyp box followed by zero padding.
type MockVideo struct{}

// Compose implements VideoComposer.
func (MockVideo) Compose(_ context.Context, _ VideoInput, out string, reporter progress.Reporter) error {
	report(reporter, "mock video", 50)
	if err := os.WriteFile(out, mockMP4(), 0o644); err != nil {
		return fmt.Errorf("write mock video: %w", err)
	}
	report(reporter, "mock video ready", 100)
	return nil
}

func mockMP4() []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x00, 0x20})
	buf.WriteString("ftypmp42")
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00})
	buf.WriteString("mp42isom")
	buf.Write(make([]byte, mockVideoPadding))
	return buf.Bytes()
}

// FFmpegComposer builds the video with ffmpeg from a concat list of frames.
type FFmpegComposer struct {
	Binary string
}

// Compose implements VideoComposer.
func (f FFmpegComposer) Compose(ctx context.Context, input VideoInput, out string, reporter progress.Reporter) error {
	frames := input.Slides
	if len(frames) == 0 && input.Thumbnail != "" {
		frames = []string{input.Thumbnail}
	}
	if len(frames) == 0 {
		return services.Wrap(services.ErrValidation, "video", "compose", "no frames to compose", nil)
	}
	listPath := filepath.Join(filepath.Dir(out), "frames.txt")
	if err := os.WriteFile(listPath, []byte(concatList(frames)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	report(reporter, fmt.Sprintf("composing %d frames", len(frames)), 20)

	cmd := exec.CommandContext(ctx, f.binary(), f.args(listPath, input, out)...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return services.Wrap(services.ErrBackendUnavailable, "video", "ffmpeg", services.Truncate(lastLine(stderr.String()), 200), err)
	}
	report(reporter, "video ready", 100)
	return nil
}

func (f FFmpegComposer) binary() string {
	if strings.TrimSpace(f.Binary) == "" {
		return "ffmpeg"
	}
	return f.Binary
}

func (f FFmpegComposer) args(listPath string, input VideoInput, out string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-f", "concat", "-safe", "0", "-i", listPath}
	if input.Audio != "" {
		args = append(args, "-i", input.Audio)
	}
	filter := "scale=1280:720,format=yuv420p"
	if input.Subtitles != "" {
		filter += ",subtitles=" + escapeFilterPath(input.Subtitles)
	}
	args = append(args, "-vf", filter, "-c:v", "libx264", "-r", "30")
	if input.Audio != "" {
		args = append(args, "-c:a", "aac", "-shortest")
	}
	return append(args, out)
}

// concatList renders an ffmpeg concat demuxer script. The last frame is
// repeated because the demuxer ignores the final duration directive.
func concatList(frames []string) string {
	var sb strings.Builder
	for _, frame := range frames {
		fmt.Fprintf(&sb, "file '%s'\nduration %d\n", quoteConcat(frame), SlideSeconds)
	}
	fmt.Fprintf(&sb, "file '%s'\n", quoteConcat(frames[len(frames)-1]))
	return sb.String()
}

func quoteConcat(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(`\`, `\\`, ":", `\:`, "'", `\'`, ",", `\,`)
	return replacer.Replace(path)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
