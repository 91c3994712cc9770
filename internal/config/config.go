package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// StatusLabels are the literal values written back to the queue's status column.
type StatusLabels struct {
	Pending    string `toml:"pending"`
	InProgress string `toml:"in_progress"`
	Done       string `toml:"done"`
	Error      string `toml:"error"`
}

// Queue contains configuration for the work-queue source and its connection strategies.
type Queue struct {
	SourceRef      string       `toml:"source_ref"`
	Strategies     []string     `toml:"strategies"`
	DatabaseDSN    string       `toml:"database_dsn"`
	DatabaseTable  string       `toml:"database_table"`
	APIKey         string       `toml:"api_key"`
	OAuthTokenFile string       `toml:"oauth_token_file"`
	ValuesRange    string       `toml:"values_range"`
	RequestTimeout int          `toml:"request_timeout"`
	StatusLabels   StatusLabels `toml:"status_labels"`
}

// Monitor contains timing for the background monitoring loop.
type Monitor struct {
	CheckInterval int  `toml:"check_interval"`
	Cooldown      int  `toml:"cooldown"`
	ErrorBackoff  int  `toml:"error_backoff"`
	TickMillis    int  `toml:"tick"`
	Autostart     bool `toml:"autostart"`
}

// Listing controls how property data is collected for a subject.
type Listing struct {
	Collector         string `toml:"collector"`
	LookupURL         string `toml:"lookup_url"`
	PriceSelector     string `toml:"price_selector"`
	TrendSelector     string `toml:"trend_selector"`
	TradesSelector    string `toml:"trades_selector"`
	SchoolSelector    string `toml:"school_selector"`
	TransportSelector string `toml:"transport_selector"`
	AnalysisSelector  string `toml:"analysis_selector"`
}

// Branding carries the agency identity stamped onto every artifact.
type Branding struct {
	AgencyName    string `toml:"agency_name"`
	Contact       string `toml:"contact"`
	BrandMessage  string `toml:"brand_message"`
	DefaultNotice string `toml:"default_notice"`
	Intro         string `toml:"intro"`
	Outro         string `toml:"outro"`
}

// Render selects the media backends.
type Render struct {
	VoiceBackend        string   `toml:"voice_backend"`
	VoiceCommand        []string `toml:"voice_command"`
	VideoBackend        string   `toml:"video_backend"`
	FFmpegBinary        string   `toml:"ffmpeg_binary"`
	CueSeconds          int      `toml:"cue_seconds"`
	MaxCues             int      `toml:"max_cues"`
	ThumbnailBackground string   `toml:"thumbnail_background"`
}

// Publish contains configuration for the publish sink.
type Publish struct {
	Backend          string   `toml:"backend"`
	Unattended       bool     `toml:"unattended"`
	ConfirmTimeout   int      `toml:"confirm_timeout"`
	Tags             []string `toml:"tags"`
	PrivacyStatus    string   `toml:"privacy_status"`
	YouTubeTokenFile string   `toml:"youtube_token_file"`
	YouTubeUploadURL string   `toml:"youtube_upload_url"`
	S3Bucket         string   `toml:"s3_bucket"`
	S3Prefix         string   `toml:"s3_prefix"`
	S3Region         string   `toml:"s3_region"`
	S3Endpoint       string   `toml:"s3_endpoint"`
	S3PublicBaseURL  string   `toml:"s3_public_base_url"`
}

// Notifications contains configuration for ntfy and SQS notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	SQSQueueURL    string `toml:"sqs_queue_url"`
	Completion     bool   `toml:"completion"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics toggles the prometheus endpoint on the daemon API.
type Metrics struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for listingcast.
//
// Configuration sections by subsystem:
//   - Paths: output, log and state directories plus the API bind address
//   - Queue: work-queue reference, connection strategies, status labels
//   - Monitor: polling interval, cooldown and error backoff
//   - Listing: property data collection
//   - Branding: agency identity used in scripts, slides and descriptions
//   - Render: narration and video backends
//   - Publish: upload backend and confirmation behaviour
//   - Notifications: ntfy and SQS settings
//   - Logging: log format and level
//   - Metrics: prometheus endpoint
type Config struct {
	Paths         Paths         `toml:"paths"`
	Queue         Queue         `toml:"queue"`
	Monitor       Monitor       `toml:"monitor"`
	Listing       Listing       `toml:"listing"`
	Branding      Branding      `toml:"branding"`
	Render        Render        `toml:"render"`
	Publish       Publish       `toml:"publish"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Metrics       Metrics       `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("listingcast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SocketPath returns the IPC socket location inside the state directory.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "listingcast.sock")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "listingcastd.lock")
}

// PIDPath returns the daemon pid file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "listingcastd.pid")
}

// HistoryPath returns the run-history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// CheckInterval returns the monitor polling interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Monitor.CheckInterval) * time.Second
}

// Cooldown returns the pause between processed items.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Monitor.Cooldown) * time.Second
}

// ErrorBackoff returns the pause after a failed poll.
func (c *Config) ErrorBackoff() time.Duration {
	return time.Duration(c.Monitor.ErrorBackoff) * time.Second
}

// Tick returns the granularity at which the monitor observes stop requests.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.Monitor.TickMillis) * time.Millisecond
}

// QueueTimeout returns the per-request timeout for queue connectors.
func (c *Config) QueueTimeout() time.Duration {
	return time.Duration(c.Queue.RequestTimeout) * time.Second
}

// ConfirmTimeout returns how long a parked approval waits before it is rejected.
func (c *Config) ConfirmTimeout() time.Duration {
	return time.Duration(c.Publish.ConfirmTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
