package render

import (
	"fmt"
	"strings"
)

// BuildSRT splits script into sentences on '.' and emits one fixed-length
// cue per sentence, keeping at most maxCues.
func BuildSRT(script string, cueSeconds, maxCues int) string {
	if cueSeconds <= 0 {
		cueSeconds = 10
	}
	var sentences []string
	for _, part := range strings.Split(script, ".") {
		part = strings.Join(strings.Fields(part), " ")
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	if maxCues > 0 && len(sentences) > maxCues {
		sentences = sentences[:maxCues]
	}
	var sb strings.Builder
	for i, sentence := range sentences {
		start := i * cueSeconds
		end := (i + 1) * cueSeconds
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(start), FormatTimestamp(end), sentence)
	}
	return sb.String()
}

// FormatTimestamp renders whole seconds as an SRT timestamp.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d,000", seconds/3600, (seconds%3600)/60, seconds%60)
}
