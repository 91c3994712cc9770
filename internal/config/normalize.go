package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeQueue(); err != nil {
		return err
	}
	c.normalizeListing()
	c.normalizeBranding()
	if err := c.normalizeRender(); err != nil {
		return err
	}
	if err := c.normalizePublish(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("LISTINGCAST_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeQueue() error {
	c.Queue.SourceRef = strings.TrimSpace(c.Queue.SourceRef)
	if c.Queue.SourceRef == "" {
		if value, ok := os.LookupEnv("LISTINGCAST_SOURCE_REF"); ok {
			c.Queue.SourceRef = strings.TrimSpace(value)
		}
	}
	if c.Queue.DatabaseDSN == "" {
		if value, ok := os.LookupEnv("LISTINGCAST_DATABASE_DSN"); ok {
			c.Queue.DatabaseDSN = strings.TrimSpace(value)
		}
	}
	if c.Queue.APIKey == "" {
		for _, name := range []string{"GOOGLE_API_KEY", "GOOGLE_SHEETS_API_KEY"} {
			if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
				c.Queue.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	strategies := make([]string, 0, len(c.Queue.Strategies))
	for _, name := range c.Queue.Strategies {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			strategies = append(strategies, name)
		}
	}
	c.Queue.Strategies = strategies
	c.Queue.DatabaseTable = strings.TrimSpace(c.Queue.DatabaseTable)
	if c.Queue.DatabaseTable == "" {
		c.Queue.DatabaseTable = defaultDatabaseTable
	}
	if strings.TrimSpace(c.Queue.ValuesRange) == "" {
		c.Queue.ValuesRange = defaultValuesRange
	}
	if c.Queue.OAuthTokenFile != "" {
		var err error
		if c.Queue.OAuthTokenFile, err = expandPath(c.Queue.OAuthTokenFile); err != nil {
			return fmt.Errorf("queue.oauth_token_file: %w", err)
		}
	}
	labels := &c.Queue.StatusLabels
	labels.Pending = fallback(labels.Pending, defaultPendingLabel)
	labels.InProgress = fallback(labels.InProgress, defaultInProgressLabel)
	labels.Done = fallback(labels.Done, defaultDoneLabel)
	labels.Error = fallback(labels.Error, defaultErrorLabel)
	return nil
}

func (c *Config) normalizeListing() {
	c.Listing.Collector = strings.ToLower(strings.TrimSpace(c.Listing.Collector))
	if c.Listing.Collector == "" {
		c.Listing.Collector = defaultCollector
	}
}

func (c *Config) normalizeBranding() {
	b := &c.Branding
	b.AgencyName = fallback(b.AgencyName, defaultAgencyName)
	b.Contact = fallback(b.Contact, defaultContact)
	b.BrandMessage = fallback(b.BrandMessage, defaultBrandMessage)
	b.DefaultNotice = fallback(b.DefaultNotice, defaultAdvertisingNotice)
	b.Intro = fallback(b.Intro, defaultIntro)
	b.Outro = fallback(b.Outro, defaultOutro)
}

func (c *Config) normalizeRender() error {
	c.Render.VoiceBackend = strings.ToLower(fallback(c.Render.VoiceBackend, defaultVoiceBackend))
	c.Render.VideoBackend = strings.ToLower(fallback(c.Render.VideoBackend, defaultVideoBackend))
	c.Render.FFmpegBinary = fallback(c.Render.FFmpegBinary, defaultFFmpegBinary)
	if c.Render.ThumbnailBackground != "" {
		var err error
		if c.Render.ThumbnailBackground, err = expandPath(c.Render.ThumbnailBackground); err != nil {
			return fmt.Errorf("render.thumbnail_background: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizePublish() error {
	c.Publish.Backend = strings.ToLower(fallback(c.Publish.Backend, defaultPublishBackend))
	c.Publish.PrivacyStatus = strings.ToLower(fallback(c.Publish.PrivacyStatus, defaultPrivacyStatus))
	c.Publish.YouTubeUploadURL = fallback(c.Publish.YouTubeUploadURL, defaultYouTubeUploadURL)
	c.Publish.S3Prefix = strings.Trim(strings.TrimSpace(c.Publish.S3Prefix), "/")
	c.Publish.S3PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Publish.S3PublicBaseURL), "/")
	if len(c.Publish.Tags) == 0 {
		c.Publish.Tags = append([]string(nil), defaultPublishTags...)
	}
	if c.Publish.YouTubeTokenFile != "" {
		var err error
		if c.Publish.YouTubeTokenFile, err = expandPath(c.Publish.YouTubeTokenFile); err != nil {
			return fmt.Errorf("publish.youtube_token_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	c.Notifications.SQSQueueURL = strings.TrimSpace(c.Notifications.SQSQueueURL)
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func fallback(value, def string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	return value
}
