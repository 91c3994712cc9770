package render

import (
	"fmt"
	"log/slog"

	"listingcast/internal/config"
	"listingcast/internal/deps"
	"listingcast/internal/logging"
)

// Registry holds the implementation chosen for each capability and the
// mock variants the pipeline falls back to.
type Registry struct {
	Voice      VoiceSynthesizer
	Video      VideoComposer
	Slides     SlideRenderer
	Thumbnail  ThumbnailRenderer
	MockVoice  VoiceSynthesizer
	MockVideo  VideoComposer
	MockSlides SlideRenderer

	choices []Choice
}

// Choice records which backend a capability resolved to.
type Choice struct {
	Capability string
	Backend    string
	Detail     string
}

// NewRegistry probes the host once and selects a backend per capability.
func NewRegistry(cfg config.Render, logger *slog.Logger) *Registry {
	logger = logging.NewComponentLogger(logger, "render")
	reg := &Registry{
		MockVoice:  MockVoice{},
		MockVideo:  MockVideo{},
		MockSlides: TextSlides{},
		Slides:     ImageSlides{},
		Thumbnail:  ImageThumbnail{Background: cfg.ThumbnailBackground, Logger: logger},
	}

	reg.Voice, reg.choices = selectVoice(cfg, reg.choices)
	reg.Video, reg.choices = selectVideo(cfg, reg.choices)
	reg.choices = append(reg.choices,
		Choice{Capability: "slides", Backend: "image"},
		Choice{Capability: "thumbnail", Backend: "image"},
	)

	for _, choice := range reg.choices {
		logger.Debug("render backend selected",
			logging.String("capability", choice.Capability),
			logging.String("backend", choice.Backend),
			logging.String("detail", choice.Detail),
		)
	}
	return reg
}

// Mock returns a registry that only uses placeholder artifacts.
func Mock() *Registry {
	return &Registry{
		Voice:      MockVoice{},
		Video:      MockVideo{},
		Slides:     TextSlides{},
		Thumbnail:  ImageThumbnail{},
		MockVoice:  MockVoice{},
		MockVideo:  MockVideo{},
		MockSlides: TextSlides{},
		choices: []Choice{
			{Capability: "voice", Backend: "mock"},
			{Capability: "video", Backend: "mock"},
			{Capability: "slides", Backend: "text"},
			{Capability: "thumbnail", Backend: "image"},
		},
	}
}

// Describe lists the selected backends.
func (r *Registry) Describe() []Choice {
	if r == nil {
		return nil
	}
	out := make([]Choice, len(r.choices))
	copy(out, r.choices)
	return out
}

func selectVoice(cfg config.Render, choices []Choice) (VoiceSynthesizer, []Choice) {
	if cfg.VoiceBackend == "mock" {
		return MockVoice{}, append(choices, Choice{Capability: "voice", Backend: "mock"})
	}
	var command string
	if len(cfg.VoiceCommand) > 0 {
		command = cfg.VoiceCommand[0]
	}
	status := deps.Check(deps.Requirement{Name: "voice", Command: command})
	if status.Available {
		return CommandVoice{Argv: cfg.VoiceCommand}, append(choices, Choice{Capability: "voice", Backend: "command", Detail: status.Path})
	}
	if cfg.VoiceBackend == "command" {
		// Keep the configured command so failures surface as warnings per run.
		return CommandVoice{Argv: cfg.VoiceCommand}, append(choices, Choice{Capability: "voice", Backend: "command", Detail: status.Detail})
	}
	return MockVoice{}, append(choices, Choice{Capability: "voice", Backend: "mock", Detail: status.Detail})
}

func selectVideo(cfg config.Render, choices []Choice) (VideoComposer, []Choice) {
	if cfg.VideoBackend == "mock" {
		return MockVideo{}, append(choices, Choice{Capability: "video", Backend: "mock"})
	}
	status := deps.Check(deps.Requirement{Name: "ffmpeg", Command: cfg.FFmpegBinary})
	if status.Available {
		return FFmpegComposer{Binary: status.Path}, append(choices, Choice{Capability: "video", Backend: "ffmpeg", Detail: status.Path})
	}
	if cfg.VideoBackend == "ffmpeg" {
		return FFmpegComposer{Binary: cfg.FFmpegBinary}, append(choices, Choice{Capability: "video", Backend: "ffmpeg", Detail: status.Detail})
	}
	return MockVideo{}, append(choices, Choice{Capability: "video", Backend: "mock", Detail: status.Detail})
}

// String renders a choice for status output.
func (c Choice) String() string {
	if c.Detail == "" {
		return fmt.Sprintf("%s: %s", c.Capability, c.Backend)
	}
	return fmt.Sprintf("%s: %s (%s)", c.Capability, c.Backend, c.Detail)
}
