// Package testsupport builds throwaway configurations and stores for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"listingcast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory with mock
// backends, no queue strategies that reach the network, and millisecond
// monitor intervals.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Queue.Strategies = []string{"public_csv"}
	cfgVal.Render.VoiceBackend = "mock"
	cfgVal.Render.VideoBackend = "mock"
	cfgVal.Publish.Backend = "mock"
	cfgVal.Publish.Unattended = true
	cfgVal.Monitor.CheckInterval = 1
	cfgVal.Monitor.Cooldown = 1
	cfgVal.Monitor.ErrorBackoff = 1
	cfgVal.Monitor.TickMillis = 5
	cfgVal.Monitor.Autostart = false
	cfgVal.Metrics.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithSourceRef points the queue at ref.
func WithSourceRef(ref string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Queue.SourceRef = ref
	}
}

// WithConfirmedPublishing requires gate approval before uploads.
func WithConfirmedPublishing() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.Unattended = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
