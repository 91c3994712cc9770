package render_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"listingcast/internal/config"
	"listingcast/internal/listing"
	"listingcast/internal/render"
)

type recordingReporter struct {
	messages []string
}

func (r *recordingReporter) Substep(message string, _ int) {
	r.messages = append(r.messages, message)
}

func TestMockVoiceWritesWAVHeader(t *testing.T) {
	out := filepath.Join(t.TempDir(), "narration.wav")
	reporter := &recordingReporter{}
	if err := (render.MockVoice{}).Synthesize(context.Background(), "script", out, reporter); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) != 44 {
		t.Fatalf("expected 44-byte header, got %d", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Fatalf("unexpected header %q", data)
	}
	if len(reporter.messages) == 0 {
		t.Fatalf("expected progress substeps")
	}
}

func TestMockVideoWritesFtypBox(t *testing.T) {
	out := filepath.Join(t.TempDir(), "video.mp4")
	if err := (render.MockVideo{}).Compose(context.Background(), render.VideoInput{}, out, nil); err != nil {
		t.Fatalf("compose: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) != 24+1024 {
		t.Fatalf("unexpected size %d", len(data))
	}
	want := append([]byte{0, 0, 0, 0x20}, []byte("ftypmp42\x00\x00\x00\x00mp42isom")...)
	if !bytes.Equal(data[:24], want) {
		t.Fatalf("unexpected ftyp box %q", data[:24])
	}
}

func TestCommandVoiceRunsArgv(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "tts.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\ncat > \"$1\"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	out := filepath.Join(dir, "narration.wav")
	voice := render.CommandVoice{Argv: []string{script, render.OutputPlaceholder}}
	if err := voice.Synthesize(context.Background(), "hello world", out, nil); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "hello world" {
		t.Fatalf("expected script on stdin, got %q", data)
	}
}

func TestCommandVoiceFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "tts.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho boom >&2\nexit 3\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	voice := render.CommandVoice{Argv: []string{script}}
	err := voice.Synthesize(context.Background(), "x", filepath.Join(dir, "out.wav"), nil)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected failure carrying stderr, got %v", err)
	}
}

func TestBuildSRT(t *testing.T) {
	srt := render.BuildSRT("첫 문장. 두번째 문장.  . 세번째", 10, 2)
	want := "1\n00:00:00,000 --> 00:00:10,000\n첫 문장\n\n2\n00:00:10,000 --> 00:00:20,000\n두번째 문장\n\n"
	if srt != want {
		t.Fatalf("unexpected srt:\n%q\nwant\n%q", srt, want)
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := map[int]string{0: "00:00:00,000", 61: "00:01:01,000", 3725: "01:02:05,000", -5: "00:00:00,000"}
	for in, want := range cases {
		if got := render.FormatTimestamp(in); got != want {
			t.Fatalf("FormatTimestamp(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestImageSlidesWritesFrames(t *testing.T) {
	dir := t.TempDir()
	b := listing.BrandingFromConfig(config.Default().Branding)
	deck := listing.BuildDeck(b.Apply(listing.Property{Address: "Seoul", Type: "APT", Notice: "notice"}), b)
	artifact, err := (render.ImageSlides{}).Render(context.Background(), deck, dir)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(artifact.Frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(artifact.Frames))
	}
	img, err := imaging.Open(artifact.Frames[0])
	if err != nil {
		t.Fatalf("open frame: %v", err)
	}
	if b := img.Bounds(); b.Dx() != render.FrameWidth || b.Dy() != render.FrameHeight {
		t.Fatalf("unexpected frame size %v", b)
	}
	doc, _ := os.ReadFile(artifact.Document)
	if !strings.Contains(string(doc), "notice") {
		t.Fatalf("document missing notice")
	}
}

func TestImageThumbnailBackground(t *testing.T) {
	out := filepath.Join(t.TempDir(), "thumb.png")
	thumb := render.Thumbnail{Address: "Seoul", Price: "1", Trend: "up", Brand: "b", Notice: "n"}
	if err := (render.ImageThumbnail{}).Render(context.Background(), thumb, out); err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	r, g, b, _ := img.At(2, 2).RGBA()
	if r>>8 != 0x1E || g>>8 != 0x3A || b>>8 != 0x8A {
		t.Fatalf("unexpected corner colour %x %x %x", r>>8, g>>8, b>>8)
	}
}

func TestWrap(t *testing.T) {
	lines := render.Wrap("aaa bbb ccc\nddddddd", 7)
	want := []string{"aaa bbb", "ccc", "ddddddd"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected wrap %q", lines)
	}
}

func TestRegistryMockSelection(t *testing.T) {
	cfg := config.Default().Render
	cfg.VoiceBackend = "mock"
	cfg.VideoBackend = "mock"
	reg := render.NewRegistry(cfg, nil)
	if _, ok := reg.Voice.(render.MockVoice); !ok {
		t.Fatalf("expected mock voice, got %T", reg.Voice)
	}
	if _, ok := reg.Video.(render.MockVideo); !ok {
		t.Fatalf("expected mock video, got %T", reg.Video)
	}

	cfg.VideoBackend = "auto"
	cfg.FFmpegBinary = "clearly-not-present-ffmpeg"
	reg = render.NewRegistry(cfg, nil)
	if _, ok := reg.Video.(render.MockVideo); !ok {
		t.Fatalf("expected auto fallback to mock video, got %T", reg.Video)
	}
	found := false
	for _, choice := range reg.Describe() {
		if choice.Capability == "video" && choice.Backend == "mock" && choice.Detail != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected video choice with probe detail, got %v", reg.Describe())
	}
}
