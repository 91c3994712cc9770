package render

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"listingcast/internal/progress"
	"listingcast/internal/services"
)

// OutputPlaceholder in a voice command argv is replaced with the target path.
const OutputPlaceholder = "{output}"

// MockVoice writes a valid but empty PCM WAV file.
type MockVoice struct{}

// Synthesize implements VoiceSynthesizer.
func (MockVoice) Synthesize(_ context.Context, _ string, out string, reporter progress.Reporter) error {
	report(reporter, "mock narration", 50)
	if err := os.WriteFile(out, emptyWAV(), 0o644); err != nil {
		return fmt.Errorf("write mock narration: %w", err)
	}
	report(reporter, "mock narration ready", 100)
	return nil
}

// emptyWAV returns a 44-byte RIFF header for mono 16-bit 44.1kHz PCM with no samples.
func emptyWAV() []byte {
	const (
		sampleRate    = 44100
		channels      = 1
		bitsPerSample = 16
	)
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*bitsPerSample/8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0))
	return buf.Bytes()
}

// CommandVoice runs an external speech synthesizer with the script on stdin.
type CommandVoice struct {
	Argv []string
}

// Synthesize implements VoiceSynthesizer.
func (c CommandVoice) Synthesize(ctx context.Context, script string, out string, reporter progress.Reporter) error {
	if len(c.Argv) == 0 {
		return services.Wrap(services.ErrConfiguration, "narration", "synthesize", "voice command not configured", nil)
	}
	args := make([]string, len(c.Argv))
	for i, arg := range c.Argv {
		args[i] = strings.ReplaceAll(arg, OutputPlaceholder, out)
	}
	report(reporter, "synthesizing narration", 10)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec
	cmd.Stdin = strings.NewReader(script)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		return services.Wrap(services.ErrBackendUnavailable, "narration", "synthesize", services.Truncate(detail, 200), err)
	}
	info, err := os.Stat(out)
	if err != nil {
		return services.Wrap(services.ErrBackendUnavailable, "narration", "synthesize", "no audio written", err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrBackendUnavailable, "narration", "synthesize", "empty audio written", nil)
	}
	report(reporter, "narration ready", 100)
	return nil
}
