package preflight

import (
	"path/filepath"
	"strings"

	"listingcast/internal/config"
)

// CheckQueueFromConfig evaluates whether a work queue is configured and, for
// a local export, whether the file is readable.
func CheckQueueFromConfig(cfg *config.Config) Result {
	const name = "Queue source"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	ref := strings.TrimSpace(cfg.Queue.SourceRef)
	if ref == "" {
		return Result{Name: name, Detail: "Not configured (set queue.source_ref or pass --source)"}
	}
	if strings.EqualFold(filepath.Ext(ref), ".csv") && !strings.Contains(ref, "://") {
		return CheckFileReadable(name, ref)
	}
	return Result{Name: name, Passed: true, Detail: ref}
}

// CheckPublishFromConfig evaluates the credentials the publish backend needs.
func CheckPublishFromConfig(cfg *config.Config) Result {
	const name = "Publish backend"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	switch cfg.Publish.Backend {
	case "mock":
		return Result{Name: name, Passed: true, Detail: "mock (no upload)"}
	case "youtube":
		check := CheckFileReadable(name, cfg.Publish.YouTubeTokenFile)
		if check.Passed {
			check.Detail = "youtube, token " + check.Detail
		}
		return check
	case "s3":
		if strings.TrimSpace(cfg.Publish.S3Bucket) == "" {
			return Result{Name: name, Detail: "s3 bucket missing"}
		}
		return Result{Name: name, Passed: true, Detail: "s3://" + cfg.Publish.S3Bucket + "/" + strings.TrimLeft(cfg.Publish.S3Prefix, "/")}
	default:
		return Result{Name: name, Detail: "unknown backend " + cfg.Publish.Backend}
	}
}
