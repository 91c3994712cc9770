package publish

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"listingcast/internal/config"
)

// Request describes one upload.
type Request struct {
	Subject       string
	VideoPath     string
	Title         string
	Description   string
	Tags          []string
	ThumbnailPath string
}

// imageContentType derives the upload content type from the file extension.
func imageContentType(path string) string {
	if contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

// Client uploads a video and returns its public reference.
type Client interface {
	Name() string
	Upload(ctx context.Context, req Request) (string, error)
}

// MockClient returns a synthetic watch URL without uploading anything.
type MockClient struct {
	Now func() time.Time
}

// Name implements Client.
func (MockClient) Name() string { return "mock" }

// Upload implements Client.
func (m MockClient) Upload(context.Context, Request) (string, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return fmt.Sprintf("https://www.youtube.com/watch?v=mock_%d", now().Unix()), nil
}

// NewClient builds the client named by publish.backend.
func NewClient(ctx context.Context, cfg config.Publish, httpClient *http.Client, logger *slog.Logger) (Client, error) {
	switch cfg.Backend {
	case "youtube":
		return NewYouTubeClient(cfg, httpClient, logger), nil
	case "s3":
		return NewS3ClientFromConfig(ctx, cfg)
	default:
		return MockClient{}, nil
	}
}
