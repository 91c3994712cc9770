package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"listingcast/internal/config"
	"listingcast/internal/logging"
	"listingcast/internal/services"
)

// youtubeCategoryPeopleBlogs is the category assigned to uploads.
const youtubeCategoryPeopleBlogs = "22"

// YouTubeClient performs a resumable upload against the YouTube Data API.
type YouTubeClient struct {
	http      *http.Client
	uploadURL string
	tokenFile string
	privacy   string
	logger    *slog.Logger
}

// NewYouTubeClient builds a client from the publish configuration.
func NewYouTubeClient(cfg config.Publish, httpClient *http.Client, logger *slog.Logger) *YouTubeClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &YouTubeClient{
		http:      httpClient,
		uploadURL: cfg.YouTubeUploadURL,
		tokenFile: cfg.YouTubeTokenFile,
		privacy:   cfg.PrivacyStatus,
		logger:    logging.NewComponentLogger(logger, "publish"),
	}
}

// Name implements Client.
func (y *YouTubeClient) Name() string { return "youtube" }

type videoResource struct {
	ID      string `json:"id,omitempty"`
	Snippet struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Tags        []string `json:"tags,omitempty"`
		CategoryID  string   `json:"categoryId"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus string `json:"privacyStatus"`
	} `json:"status"`
}

// Upload implements Client.
func (y *YouTubeClient) Upload(ctx context.Context, req Request) (string, error) {
	token, err := services.LoadAccessToken(y.tokenFile)
	if err != nil {
		return "", err
	}
	video, err := os.ReadFile(req.VideoPath)
	if err != nil {
		return "", fmt.Errorf("read video: %w", err)
	}

	session, err := y.startSession(ctx, token, req, len(video))
	if err != nil {
		return "", err
	}
	id, err := y.sendVideo(ctx, token, session, video)
	if err != nil {
		return "", err
	}

	if req.ThumbnailPath != "" {
		if err := y.setThumbnail(ctx, token, id, req.ThumbnailPath); err != nil {
			logging.WarnWithContext(y.logger, "thumbnail upload failed", "youtube_thumbnail_failed",
				logging.String("video_id", id),
				logging.Error(err),
				logging.String(logging.FieldImpact, "video published with the platform default thumbnail"),
				logging.String(logging.FieldErrorHint, "verify the channel allows custom thumbnails"),
			)
		}
	}
	return "https://www.youtube.com/watch?v=" + id, nil
}

func (y *YouTubeClient) startSession(ctx context.Context, token string, req Request, size int) (string, error) {
	var meta videoResource
	meta.Snippet.Title = req.Title
	meta.Snippet.Description = req.Description
	meta.Snippet.Tags = req.Tags
	meta.Snippet.CategoryID = youtubeCategoryPeopleBlogs
	meta.Status.PrivacyStatus = y.privacy
	body, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode video metadata: %w", err)
	}

	endpoint, err := url.Parse(y.uploadURL)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "publish", "youtube", "invalid upload url", err)
	}
	query := endpoint.Query()
	query.Set("uploadType", "resumable")
	query.Set("part", "snippet,status")
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json; charset=UTF-8")
	httpReq.Header.Set("X-Upload-Content-Type", "video/mp4")
	httpReq.Header.Set("X-Upload-Content-Length", strconv.Itoa(size))

	resp, err := y.http.Do(httpReq)
	if err != nil {
		return "", services.Wrap(services.ErrBackendUnavailable, "publish", "youtube", "start upload session", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", statusError("start upload session", resp)
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return "", services.Wrap(services.ErrBackendUnavailable, "publish", "youtube", "upload session missing location", nil)
	}
	return location, nil
}

func (y *YouTubeClient) sendVideo(ctx context.Context, token, session string, video []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, session, bytes.NewReader(video))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "video/mp4")

	resp, err := y.http.Do(httpReq)
	if err != nil {
		return "", services.Wrap(services.ErrBackendUnavailable, "publish", "youtube", "upload video", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", statusError("upload video", resp)
	}
	var created videoResource
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if created.ID == "" {
		return "", services.Wrap(services.ErrBackendUnavailable, "publish", "youtube", "upload response missing id", nil)
	}
	return created.ID, nil
}

func (y *YouTubeClient) setThumbnail(ctx context.Context, token, videoID, path string) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read thumbnail: %w", err)
	}
	endpoint := strings.Replace(y.uploadURL, "/videos", "/thumbnails/set", 1) + "?videoId=" + url.QueryEscape(videoID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(image))
	if err != nil {
		return fmt.Errorf("build thumbnail request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", imageContentType(path))
	resp, err := y.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError("set thumbnail", resp)
	}
	return nil
}

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := fmt.Sprintf("%s returned %d: %s", operation, resp.StatusCode, strings.TrimSpace(string(body)))
	return services.Wrap(services.ErrBackendUnavailable, "publish", "youtube", detail, nil)
}
