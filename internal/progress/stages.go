package progress

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed stages.yaml
var stagesYAML []byte

// Stage describes one pipeline step.
type Stage struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// Stages is the ordered stage table.
type Stages []Stage

// Stage indexes into the default table.
const (
	Initialize = iota
	Collect
	Script
	Slides
	Thumbnail
	Narration
	Subtitles
	Video
	Publish
	Finalize
)

var defaultStages = mustParse(stagesYAML)

// Default returns the embedded stage table.
func Default() Stages {
	return append(Stages(nil), defaultStages...)
}

// Parse decodes a stage table document.
func Parse(data []byte) (Stages, error) {
	var doc struct {
		Stages Stages `yaml:"stages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stage table: %w", err)
	}
	if len(doc.Stages) == 0 {
		return nil, fmt.Errorf("parse stage table: no stages defined")
	}
	for i, stage := range doc.Stages {
		if strings.TrimSpace(stage.Key) == "" {
			return nil, fmt.Errorf("parse stage table: stage %d has no key", i)
		}
	}
	return doc.Stages, nil
}

func mustParse(data []byte) Stages {
	stages, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return stages
}

// Label returns the human-readable label for stage, or a generic fallback
// for indexes outside the table.
func (s Stages) Label(stage int) string {
	if stage >= 0 && stage < len(s) && s[stage].Label != "" {
		return s[stage].Label
	}
	return fmt.Sprintf("stage %d processing", stage+1)
}

// Key returns the stage key used in logs, or "stage-N" outside the table.
func (s Stages) Key(stage int) string {
	if stage >= 0 && stage < len(s) {
		return s[stage].Key
	}
	return fmt.Sprintf("stage-%d", stage+1)
}

// Percent converts a stage index and sub-step percentage into overall completion.
// The result is floor(100 * (stage + sub/100) / total), clamped to [0, 100].
func Percent(stage, sub, total int) int {
	if total <= 0 {
		return 0
	}
	sub = clamp(sub, 0, 100)
	return clamp((100*stage+sub)/total, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
