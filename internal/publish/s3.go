package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"listingcast/internal/config"
	"listingcast/internal/services"
)

// S3API is the subset of the S3 client used for publishing.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Client stores videos in a bucket and returns their public location.
type S3Client struct {
	api        S3API
	bucket     string
	prefix     string
	publicBase string
	now        func() time.Time
}

// NewS3Client wraps an S3 API with the configured bucket layout.
func NewS3Client(api S3API, cfg config.Publish) *S3Client {
	return &S3Client{
		api:        api,
		bucket:     cfg.S3Bucket,
		prefix:     cfg.S3Prefix,
		publicBase: strings.TrimRight(cfg.S3PublicBaseURL, "/"),
		now:        time.Now,
	}
}

// NewS3ClientFromConfig loads AWS credentials from the environment and builds the client.
func NewS3ClientFromConfig(ctx context.Context, cfg config.Publish) (*S3Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "s3", "load aws config", err)
	}
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})
	return NewS3Client(api, cfg), nil
}

// Name implements Client.
func (c *S3Client) Name() string { return "s3" }

// Upload implements Client.
func (c *S3Client) Upload(ctx context.Context, req Request) (string, error) {
	key := c.key(req.VideoPath)
	if err := c.put(ctx, key, req.VideoPath, "video/mp4"); err != nil {
		return "", err
	}
	if req.ThumbnailPath != "" {
		if err := c.put(ctx, c.key(req.ThumbnailPath), req.ThumbnailPath, imageContentType(req.ThumbnailPath)); err != nil {
			return "", err
		}
	}
	if c.publicBase != "" {
		return c.publicBase + "/" + key, nil
	}
	return fmt.Sprintf("s3://%s/%s", c.bucket, key), nil
}

func (c *S3Client) key(file string) string {
	now := c.now()
	parts := []string{now.Format("2006"), now.Format("01"), filepath.Base(file)}
	if c.prefix != "" {
		parts = append([]string{c.prefix}, parts...)
	}
	return path.Join(parts...)
}

func (c *S3Client) put(ctx context.Context, key, file, contentType string) error {
	body, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer body.Close()
	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return services.Wrap(services.ErrBackendUnavailable, "publish", "s3", "put "+key, err)
	}
	return nil
}
