package publish

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"listingcast/internal/logging"
	"listingcast/internal/metrics"
	"listingcast/internal/progress"
)

// CancelledMessage is returned when the confirmation gate declines an upload.
const CancelledMessage = "cancelled by operator"

// IsCancellation reports whether a publish message is an operator cancellation.
func IsCancellation(message string) bool {
	return strings.Contains(message, CancelledMessage)
}

// SinkOptions configures a Sink.
type SinkOptions struct {
	Client     Client
	Gate       Gate
	Unattended bool
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Sink uploads through a Client, asking the Gate first unless unattended.
type Sink struct {
	client     Client
	gate       Gate
	unattended atomic.Bool
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewSink builds a sink. A nil client publishes through MockClient.
func NewSink(opts SinkOptions) *Sink {
	client := opts.Client
	if client == nil {
		client = MockClient{}
	}
	s := &Sink{
		client:  client,
		gate:    opts.Gate,
		logger:  logging.NewComponentLogger(opts.Logger, "publish"),
		metrics: opts.Metrics,
	}
	s.unattended.Store(opts.Unattended)
	return s
}

// SetUnattended switches between unattended and confirmed publishing.
func (s *Sink) SetUnattended(enabled bool) {
	s.unattended.Store(enabled)
	s.logger.Info("publish mode changed",
		logging.Bool("unattended", enabled),
		logging.String(logging.FieldEventType, "publish_mode_changed"),
	)
}

// Unattended reports the current mode.
func (s *Sink) Unattended() bool {
	return s.unattended.Load()
}

// Backend names the upload client.
func (s *Sink) Backend() string {
	return s.client.Name()
}

// Publish uploads req. It returns true and the public reference on success,
// or false and a message; CancelledMessage marks an operator decline.
func (s *Sink) Publish(ctx context.Context, req Request, reporter progress.Reporter) (bool, string) {
	if !s.Unattended() {
		if reporter != nil {
			reporter.Substep("awaiting publish confirmation", 10)
		}
		approved, err := s.confirm(ctx, req)
		if err != nil {
			logging.WarnWithContext(s.logger, "publish confirmation failed", "publish_confirmation_failed",
				logging.String(logging.FieldSubject, req.Subject),
				logging.Error(err),
				logging.String(logging.FieldImpact, "upload cancelled"),
			)
		}
		if !approved {
			s.metrics.PublishResult("cancelled")
			s.logger.Info("publish cancelled",
				logging.String(logging.FieldSubject, req.Subject),
				logging.String(logging.FieldEventType, "publish_cancelled"),
			)
			return false, CancelledMessage
		}
	}

	if reporter != nil {
		reporter.Substep("uploading via "+s.client.Name(), 40)
	}
	reference, err := s.client.Upload(ctx, req)
	if err != nil {
		s.metrics.PublishResult("error")
		return false, err.Error()
	}
	s.metrics.PublishResult("ok")
	if reporter != nil {
		reporter.Substep("published", 100)
	}
	s.logger.Info("publish completed",
		logging.String(logging.FieldSubject, req.Subject),
		logging.String("reference", reference),
		logging.String(logging.FieldEventType, "publish_completed"),
	)
	return true, reference
}

func (s *Sink) confirm(ctx context.Context, req Request) (bool, error) {
	if s.gate == nil {
		return false, errors.New("no confirmation gate configured")
	}
	return s.gate.Confirm(ctx, Summary{
		Subject:   req.Subject,
		Title:     req.Title,
		VideoPath: req.VideoPath,
		Backend:   s.client.Name(),
	})
}
