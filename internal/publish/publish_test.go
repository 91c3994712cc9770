package publish_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"listingcast/internal/config"
	"listingcast/internal/publish"
	"listingcast/internal/services"
)

type stubClient struct {
	mu        sync.Mutex
	calls     int
	reference string
	err       error
}

func (s *stubClient) Name() string { return "stub" }

func (s *stubClient) Upload(context.Context, publish.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.reference, s.err
}

type stubGate struct {
	answer  bool
	err     error
	summary publish.Summary
}

func (g *stubGate) Confirm(_ context.Context, summary publish.Summary) (bool, error) {
	g.summary = summary
	return g.answer, g.err
}

func TestMockClientReference(t *testing.T) {
	client := publish.MockClient{Now: func() time.Time { return time.Unix(1700000000, 0) }}
	ref, err := client.Upload(context.Background(), publish.Request{})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if ref != "https://www.youtube.com/watch?v=mock_1700000000" {
		t.Fatalf("unexpected reference %q", ref)
	}
}

func TestSinkUnattendedSkipsGate(t *testing.T) {
	client := &stubClient{reference: "ref"}
	gate := &stubGate{answer: false}
	sink := publish.NewSink(publish.SinkOptions{Client: client, Gate: gate, Unattended: true})
	ok, ref := sink.Publish(context.Background(), publish.Request{Subject: "s"}, nil)
	if !ok || ref != "ref" {
		t.Fatalf("expected success, got %v %q", ok, ref)
	}
	if gate.summary.Subject != "" {
		t.Fatalf("gate should not be consulted in unattended mode")
	}
}

func TestSinkConfirmedRejection(t *testing.T) {
	client := &stubClient{reference: "ref"}
	gate := &stubGate{answer: false}
	sink := publish.NewSink(publish.SinkOptions{Client: client, Gate: gate})
	ok, msg := sink.Publish(context.Background(), publish.Request{Subject: "addr", Title: "t"}, nil)
	if ok || msg != publish.CancelledMessage || !publish.IsCancellation(msg) {
		t.Fatalf("expected cancellation, got %v %q", ok, msg)
	}
	if client.calls != 0 {
		t.Fatalf("client must not be called after rejection")
	}
	if gate.summary.Subject != "addr" || gate.summary.Backend != "stub" {
		t.Fatalf("unexpected summary %+v", gate.summary)
	}
}

func TestSinkGateErrorIsCancellation(t *testing.T) {
	sink := publish.NewSink(publish.SinkOptions{Client: &stubClient{}, Gate: &stubGate{err: errors.New("broken")}})
	if ok, msg := sink.Publish(context.Background(), publish.Request{}, nil); ok || msg != publish.CancelledMessage {
		t.Fatalf("expected cancellation on gate error, got %v %q", ok, msg)
	}
}

func TestSinkToggleMode(t *testing.T) {
	client := &stubClient{reference: "ref"}
	sink := publish.NewSink(publish.SinkOptions{Client: client, Gate: &stubGate{answer: false}})
	if sink.Unattended() {
		t.Fatalf("expected confirmed mode")
	}
	sink.SetUnattended(true)
	if ok, _ := sink.Publish(context.Background(), publish.Request{}, nil); !ok {
		t.Fatalf("expected publish after switching to unattended")
	}
}

func TestSinkClientErrorNotCancellation(t *testing.T) {
	sink := publish.NewSink(publish.SinkOptions{Client: &stubClient{err: errors.New("quota exceeded")}, Unattended: true})
	ok, msg := sink.Publish(context.Background(), publish.Request{}, nil)
	if ok || msg != "quota exceeded" || publish.IsCancellation(msg) {
		t.Fatalf("unexpected result %v %q", ok, msg)
	}
}

func waitPending(t *testing.T, gate *publish.ApprovalGate) publish.Approval {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pending := gate.Pending(); len(pending) == 1 {
			return pending[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("approval never parked")
	return publish.Approval{}
}

func TestApprovalGateApproveAndReject(t *testing.T) {
	gate := publish.NewApprovalGate(time.Minute, nil)
	for _, approve := range []bool{true, false} {
		result := make(chan bool, 1)
		go func() {
			ok, _ := gate.Confirm(context.Background(), publish.Summary{Subject: "addr"})
			result <- ok
		}()
		pending := waitPending(t, gate)
		if pending.Summary.Subject != "addr" {
			t.Fatalf("unexpected pending %+v", pending)
		}
		var err error
		if approve {
			err = gate.Approve(pending.ID)
		} else {
			err = gate.Reject(pending.ID)
		}
		if err != nil {
			t.Fatalf("decide: %v", err)
		}
		if got := <-result; got != approve {
			t.Fatalf("expected %v, got %v", approve, got)
		}
		if len(gate.Pending()) != 0 {
			t.Fatalf("expected no pending approvals")
		}
	}
	if err := gate.Approve(99); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApprovalGateTimeout(t *testing.T) {
	gate := publish.NewApprovalGate(20*time.Millisecond, nil)
	ok, err := gate.Confirm(context.Background(), publish.Summary{})
	if ok || err != nil {
		t.Fatalf("expected timeout rejection, got %v %v", ok, err)
	}
}

func TestApprovalGateContextCancel(t *testing.T) {
	gate := publish.NewApprovalGate(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if ok, err := gate.Confirm(ctx, publish.Summary{}); ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v %v", ok, err)
	}
}

func TestConsoleGate(t *testing.T) {
	cases := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false}
	for input, want := range cases {
		var out bytes.Buffer
		gate := publish.NewConsoleGate(strings.NewReader(input), &out)
		got, err := gate.Confirm(context.Background(), publish.Summary{Subject: "addr"})
		if err != nil {
			t.Fatalf("confirm(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("confirm(%q) = %v, want %v", input, got, want)
		}
		if !strings.Contains(out.String(), "addr") {
			t.Fatalf("prompt missing subject: %q", out.String())
		}
	}
}

func TestConsoleGateSequentialAnswers(t *testing.T) {
	var out bytes.Buffer
	gate := publish.NewConsoleGate(strings.NewReader("y\nn\nyes\n"), &out)
	for i, want := range []bool{true, false, true, false} {
		got, err := gate.Confirm(context.Background(), publish.Summary{Subject: "addr"})
		if err != nil {
			t.Fatalf("confirm #%d: %v", i+1, err)
		}
		if got != want {
			t.Fatalf("confirm #%d = %v, want %v", i+1, got, want)
		}
	}
	if prompts := strings.Count(out.String(), "Publish now?"); prompts != 4 {
		t.Fatalf("expected 4 prompts, got %d", prompts)
	}
}

func TestConsoleGateKeepsAnswerAfterCancel(t *testing.T) {
	in, feed := io.Pipe()
	defer in.Close()
	gate := publish.NewConsoleGate(in, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gate.Confirm(ctx, publish.Summary{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}

	go func() { _, _ = feed.Write([]byte("y\n")) }()
	got, err := gate.Confirm(context.Background(), publish.Summary{})
	if err != nil || !got {
		t.Fatalf("expected the next answer to reach the next prompt, got %v %v", got, err)
	}
}

func TestYouTubeClientResumableUpload(t *testing.T) {
	dir := t.TempDir()
	token := filepath.Join(dir, "token.json")
	video := filepath.Join(dir, "video.mp4")
	thumb := filepath.Join(dir, "thumbnail.jpg")
	for path, data := range map[string]string{token: `{"access_token":"tok"}`, video: "VIDEO", thumb: "JPEG"} {
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	var thumbnailSet bool
	var thumbnailType string
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload/videos":
			if r.URL.Query().Get("uploadType") != "resumable" {
				http.Error(w, "bad upload type", http.StatusBadRequest)
				return
			}
			var meta struct {
				Snippet struct{ Title string } `json:"snippet"`
				Status  struct{ PrivacyStatus string } `json:"status"`
			}
			_ = json.NewDecoder(r.Body).Decode(&meta)
			if meta.Snippet.Title != "title" || meta.Status.PrivacyStatus != "private" {
				http.Error(w, "bad metadata", http.StatusBadRequest)
				return
			}
			w.Header().Set("Location", srv.URL+"/session/1")
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && r.URL.Path == "/session/1":
			body, _ := io.ReadAll(r.Body)
			if string(body) != "VIDEO" {
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"id":"abc123"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/upload/thumbnails/set":
			thumbnailSet = r.URL.Query().Get("videoId") == "abc123"
			thumbnailType = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := config.Default().Publish
	cfg.YouTubeTokenFile = token
	cfg.YouTubeUploadURL = srv.URL + "/upload/videos"
	client := publish.NewYouTubeClient(cfg, srv.Client(), nil)
	ref, err := client.Upload(context.Background(), publish.Request{VideoPath: video, ThumbnailPath: thumb, Title: "title"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if ref != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("unexpected reference %q", ref)
	}
	if !thumbnailSet {
		t.Fatalf("expected thumbnail upload")
	}
	if thumbnailType != "image/jpeg" {
		t.Fatalf("expected image/jpeg thumbnail, got %q", thumbnailType)
	}
}

func TestYouTubeClientMissingToken(t *testing.T) {
	cfg := config.Default().Publish
	cfg.YouTubeTokenFile = filepath.Join(t.TempDir(), "missing.json")
	_, err := publish.NewYouTubeClient(cfg, nil, nil).Upload(context.Background(), publish.Request{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

type fakeS3 struct {
	keys  []string
	types []string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, *in.Key)
	f.types = append(f.types, *in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3ClientUpload(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "video.mp4")
	thumb := filepath.Join(dir, "thumbnail.jpg")
	_ = os.WriteFile(video, []byte("v"), 0o600)
	_ = os.WriteFile(thumb, []byte("t"), 0o600)

	cfg := config.Default().Publish
	cfg.S3Bucket = "media"
	cfg.S3Prefix = "listings"
	api := &fakeS3{}
	client := publish.NewS3Client(api, cfg)
	ref, err := client.Upload(context.Background(), publish.Request{VideoPath: video, ThumbnailPath: thumb})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(api.keys) != 2 || !strings.HasPrefix(api.keys[0], "listings/") || !strings.HasSuffix(api.keys[0], "/video.mp4") {
		t.Fatalf("unexpected keys %v", api.keys)
	}
	if api.types[0] != "video/mp4" || api.types[1] != "image/jpeg" {
		t.Fatalf("unexpected content types %v", api.types)
	}
	if ref != "s3://media/"+api.keys[0] {
		t.Fatalf("unexpected reference %q", ref)
	}

	cfg.S3PublicBaseURL = "https://cdn.example.com/"
	api = &fakeS3{}
	ref, err = publish.NewS3Client(api, cfg).Upload(context.Background(), publish.Request{VideoPath: video})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if ref != "https://cdn.example.com/"+api.keys[0] {
		t.Fatalf("unexpected public reference %q", ref)
	}
}

func TestS3ClientError(t *testing.T) {
	video := filepath.Join(t.TempDir(), "video.mp4")
	_ = os.WriteFile(video, []byte("v"), 0o600)
	cfg := config.Default().Publish
	cfg.S3Bucket = "media"
	_, err := publish.NewS3Client(&fakeS3{err: errors.New("denied")}, cfg).Upload(context.Background(), publish.Request{VideoPath: video})
	if !errors.Is(err, services.ErrBackendUnavailable) {
		t.Fatalf("expected backend error, got %v", err)
	}
}
