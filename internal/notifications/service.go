package notifications

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"listingcast/internal/config"
	"listingcast/internal/logging"
)

const userAgent = "listingcast/1.0"

// Service defines the notification surface exposed to the monitor and daemon.
type Service interface {
	NotifyCompleted(ctx context.Context, subject, reference, deck string) error
	NotifyFailed(ctx context.Context, subject string, err error) error
	NotifyMonitorStarted(ctx context.Context, sourceRef string) error
	TestNotification(ctx context.Context) error
}

// Event is the structured form of a notification shared by every sink.
type Event struct {
	Kind      string    `json:"event"`
	Subject   string    `json:"subject,omitempty"`
	Reference string    `json:"reference,omitempty"`
	Deck      string    `json:"deck,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Event kinds.
const (
	KindCompleted      = "completed"
	KindFailed         = "failed"
	KindMonitorStarted = "monitor_started"
	KindTest           = "test"
)

// sink delivers one rendered event.
type sink interface {
	deliver(ctx context.Context, event Event, msg message) error
}

// NewService builds the configured sinks. SQS setup problems are logged and
// the SQS sink is skipped.
func NewService(ctx context.Context, cfg *config.Config, logger *slog.Logger) Service {
	logger = logging.NewComponentLogger(logger, "notifications")
	if cfg == nil {
		return noopService{}
	}
	var sinks []sink

	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		sinks = append(sinks, &ntfySink{endpoint: topic, client: &http.Client{Timeout: timeout}})
	}
	if queueURL := strings.TrimSpace(cfg.Notifications.SQSQueueURL); queueURL != "" {
		api, err := newSQSClient(ctx)
		if err != nil {
			logging.WarnWithContext(logger, "sqs notifications disabled", "sqs_setup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "completion events are not sent to SQS"),
				logging.String(logging.FieldErrorHint, "check AWS credentials and region"),
			)
		} else {
			sinks = append(sinks, &sqsSink{api: api, queueURL: queueURL})
		}
	}
	if len(sinks) == 0 {
		return noopService{}
	}
	return newMultiService(sinks, cfg, logger)
}

type multiService struct {
	sinks      []sink
	agency     string
	completion bool
	errors     bool
	now        func() time.Time
	logger     *slog.Logger
}

func newMultiService(sinks []sink, cfg *config.Config, logger *slog.Logger) *multiService {
	return &multiService{
		sinks:      sinks,
		agency:     cfg.Branding.AgencyName,
		completion: cfg.Notifications.Completion,
		errors:     cfg.Notifications.Errors,
		now:        time.Now,
		logger:     logger,
	}
}

func (m *multiService) NotifyCompleted(ctx context.Context, subject, reference, deck string) error {
	if !m.completion {
		return nil
	}
	event := Event{Kind: KindCompleted, Subject: subject, Reference: reference, Deck: deck, At: m.now()}
	return m.dispatch(ctx, event, completedMessage(m.agency, event))
}

func (m *multiService) NotifyFailed(ctx context.Context, subject string, err error) error {
	if !m.errors {
		return nil
	}
	event := Event{Kind: KindFailed, Subject: subject, At: m.now()}
	if err != nil {
		event.Error = strings.TrimSpace(err.Error())
	}
	return m.dispatch(ctx, event, failedMessage(m.agency, event))
}

func (m *multiService) NotifyMonitorStarted(ctx context.Context, sourceRef string) error {
	event := Event{Kind: KindMonitorStarted, Reference: sourceRef, At: m.now()}
	return m.dispatch(ctx, event, monitorStartedMessage(m.agency, event))
}

func (m *multiService) TestNotification(ctx context.Context) error {
	event := Event{Kind: KindTest, At: m.now()}
	return m.dispatch(ctx, event, testMessage(m.agency))
}

func (m *multiService) dispatch(ctx context.Context, event Event, msg message) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.deliver(ctx, event, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewNoop returns a service that drops every notification.
func NewNoop() Service { return noopService{} }

type noopService struct{}

func (noopService) NotifyCompleted(context.Context, string, string, string) error { return nil }
func (noopService) NotifyFailed(context.Context, string, error) error            { return nil }
func (noopService) NotifyMonitorStarted(context.Context, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
