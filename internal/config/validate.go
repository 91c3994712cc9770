package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMonitor(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateListing(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMonitor() error {
	return ensurePositiveMap(map[string]int{
		"monitor.check_interval":        c.Monitor.CheckInterval,
		"monitor.error_backoff":         c.Monitor.ErrorBackoff,
		"monitor.tick":                  c.Monitor.TickMillis,
		"queue.request_timeout":         c.Queue.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"publish.confirm_timeout":       c.Publish.ConfirmTimeout,
		"render.cue_seconds":            c.Render.CueSeconds,
		"render.max_cues":               c.Render.MaxCues,
	})
}

func (c *Config) validateQueue() error {
	if len(c.Queue.Strategies) == 0 {
		return errors.New("queue.strategies must list at least one strategy")
	}
	for _, name := range c.Queue.Strategies {
		switch name {
		case strategyDatabase, strategyPublicCSV, strategyAPIKey, strategyOAuth:
		default:
			return fmt.Errorf("queue.strategies: unknown strategy %q", name)
		}
	}
	if c.Monitor.Cooldown < 0 {
		return errors.New("monitor.cooldown must not be negative")
	}
	return nil
}

func (c *Config) validateListing() error {
	switch c.Listing.Collector {
	case "mock":
	case "scrape":
		if !strings.Contains(c.Listing.LookupURL, "{address}") {
			return errors.New("listing.lookup_url must contain {address} when listing.collector is scrape")
		}
	default:
		return fmt.Errorf("listing.collector: unknown collector %q", c.Listing.Collector)
	}
	return nil
}

func (c *Config) validateRender() error {
	switch c.Render.VoiceBackend {
	case "auto", "mock":
	case "command":
		if len(c.Render.VoiceCommand) == 0 {
			return errors.New("render.voice_command must be set when render.voice_backend is command")
		}
	default:
		return fmt.Errorf("render.voice_backend: unknown backend %q", c.Render.VoiceBackend)
	}
	switch c.Render.VideoBackend {
	case "auto", "ffmpeg", "mock":
	default:
		return fmt.Errorf("render.video_backend: unknown backend %q", c.Render.VideoBackend)
	}
	return nil
}

func (c *Config) validatePublish() error {
	switch c.Publish.Backend {
	case "mock":
	case "youtube":
		if strings.TrimSpace(c.Publish.YouTubeTokenFile) == "" {
			return errors.New("publish.youtube_token_file must be set when publish.backend is youtube")
		}
	case "s3":
		if strings.TrimSpace(c.Publish.S3Bucket) == "" {
			return errors.New("publish.s3_bucket must be set when publish.backend is s3")
		}
	default:
		return fmt.Errorf("publish.backend: unknown backend %q", c.Publish.Backend)
	}
	switch c.Publish.PrivacyStatus {
	case "private", "unlisted", "public":
	default:
		return fmt.Errorf("publish.privacy_status: unsupported value %q", c.Publish.PrivacyStatus)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
