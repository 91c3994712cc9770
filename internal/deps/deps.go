// Package deps probes the external binaries the render backends shell out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"listingcast/internal/config"
)

// Requirement names one external binary a backend needs.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports whether a requirement resolved on this host.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// Check resolves a single requirement against PATH.
func Check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}

// CheckBinaries evaluates the provided requirements in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, Check(req))
	}
	return results
}

// RenderRequirements lists the binaries the configured render backends may use.
// Backends set to mock need nothing and are omitted.
func RenderRequirements(cfg config.Render) []Requirement {
	var reqs []Requirement
	if cfg.VideoBackend != "mock" {
		reqs = append(reqs, Requirement{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary,
			Description: "Composes slide frames, narration and subtitles into video",
			Optional:    cfg.VideoBackend == "auto",
		})
	}
	if cfg.VoiceBackend != "mock" {
		command := ""
		if len(cfg.VoiceCommand) > 0 {
			command = cfg.VoiceCommand[0]
		}
		reqs = append(reqs, Requirement{
			Name:        "Speech synthesizer",
			Command:     command,
			Description: "Reads the script on stdin and writes narration audio",
			Optional:    cfg.VoiceBackend == "auto",
		})
	}
	return reqs
}
