package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"listingcast/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	f := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(f, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if result := CheckFileReadable("token", f); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckFileReadable("token", ""); result.Passed || result.Detail != "not configured" {
		t.Fatalf("expected not configured, got %+v", result)
	}
	if result := CheckFileReadable("token", filepath.Dir(f)); result.Passed {
		t.Fatal("expected failure for directory")
	}
}

func TestCheckEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	result := CheckEndpoint(context.Background(), "lookup", srv.URL+"/search?q={address}")
	if !result.Passed {
		t.Fatalf("expected 404 to count as reachable, got: %s", result.Detail)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	if result := CheckEndpoint(context.Background(), "lookup", failing.URL); result.Passed {
		t.Fatal("expected 502 to fail")
	}
	if result := CheckEndpoint(context.Background(), "lookup", "not a url"); result.Passed {
		t.Fatal("expected invalid url to fail")
	}
}

func TestCheckQueueFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Queue.SourceRef = ""
	if result := CheckQueueFromConfig(&cfg); result.Passed {
		t.Fatal("expected missing source to fail")
	}

	cfg.Queue.SourceRef = filepath.Join(t.TempDir(), "missing.csv")
	if result := CheckQueueFromConfig(&cfg); result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("expected missing export to fail, got %+v", result)
	}

	cfg.Queue.SourceRef = "https://docs.google.com/spreadsheets/d/abc/edit"
	if result := CheckQueueFromConfig(&cfg); !result.Passed {
		t.Fatalf("expected sheet url to pass, got %+v", result)
	}
}

func TestCheckPublishFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Publish.Backend = "s3"
	cfg.Publish.S3Bucket = ""
	if result := CheckPublishFromConfig(&cfg); result.Passed {
		t.Fatal("expected missing bucket to fail")
	}
	cfg.Publish.S3Bucket = "videos"
	cfg.Publish.S3Prefix = "listings"
	if result := CheckPublishFromConfig(&cfg); !result.Passed || result.Detail != "s3://videos/listings" {
		t.Fatalf("unexpected s3 result %+v", result)
	}

	cfg.Publish.Backend = "youtube"
	cfg.Publish.YouTubeTokenFile = filepath.Join(t.TempDir(), "absent.json")
	if result := CheckPublishFromConfig(&cfg); result.Passed {
		t.Fatal("expected missing token file to fail")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Queue.SourceRef = "https://docs.google.com/spreadsheets/d/abc/edit"
	cfg.Listing.Collector = "mock"
	cfg.Publish.Backend = "mock"

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures %+v", failed)
	}
}

func TestRunAll_IncludesLookupWhenScraping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Listing.Collector = "scrape"
	cfg.Listing.LookupURL = srv.URL + "/lookup?address={address}"
	cfg.Publish.Backend = "mock"

	results := RunAll(context.Background(), &cfg)
	found := false
	for _, r := range results {
		if r.Name == "Listing lookup" {
			found = true
			if !r.Passed {
				t.Errorf("lookup check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected lookup check in results")
	}
}
