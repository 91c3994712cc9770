package workqueue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"listingcast/internal/config"
	"listingcast/internal/logging"
	"listingcast/internal/services"
)

// FallbackRecorder is notified whenever ListPending serves the sample set.
type FallbackRecorder interface {
	QueueFallback()
}

// Options configures a Source.
type Options struct {
	Connectors    []Connector
	Labels        config.StatusLabels
	DefaultNotice string
	Logger        *slog.Logger
	Fallback      FallbackRecorder
	Now           func() time.Time
}

// Source is the work-queue facade used by the monitor and pipeline.
type Source struct {
	connectors    []Connector
	labels        config.StatusLabels
	defaultNotice string
	logger        *slog.Logger
	fallback      FallbackRecorder
	now           func() time.Time

	mu     sync.Mutex
	ref    string
	conn   Connection
	header []string
}

// NewSource builds a Source over an explicit connector chain.
func NewSource(opts Options) *Source {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Source{
		connectors:    opts.Connectors,
		labels:        opts.Labels,
		defaultNotice: opts.DefaultNotice,
		logger:        logging.NewComponentLogger(opts.Logger, "workqueue"),
		fallback:      opts.Fallback,
		now:           now,
	}
}

// NewSourceFromConfig builds the configured connector chain and wraps it in a Source.
func NewSourceFromConfig(cfg *config.Config, logger *slog.Logger, fallback FallbackRecorder) (*Source, error) {
	connectors, err := NewConnectors(cfg, &http.Client{Timeout: cfg.QueueTimeout()})
	if err != nil {
		return nil, err
	}
	return NewSource(Options{
		Connectors:    connectors,
		Labels:        cfg.Queue.StatusLabels,
		DefaultNotice: cfg.Branding.DefaultNotice,
		Logger:        logger,
		Fallback:      fallback,
	}), nil
}

// NewConnectors returns connectors in the order listed by queue.strategies.
func NewConnectors(cfg *config.Config, client *http.Client) ([]Connector, error) {
	connectors := make([]Connector, 0, len(cfg.Queue.Strategies))
	for _, name := range cfg.Queue.Strategies {
		switch name {
		case StrategyDatabase:
			connectors = append(connectors, &DatabaseConnector{DSN: cfg.Queue.DatabaseDSN, Table: cfg.Queue.DatabaseTable})
		case StrategyPublicCSV:
			connectors = append(connectors, &CSVExportConnector{Client: client})
		case StrategyAPIKey:
			connectors = append(connectors, &SheetsAPIKeyConnector{Client: client, APIKey: cfg.Queue.APIKey, Range: cfg.Queue.ValuesRange})
		case StrategyOAuth:
			connectors = append(connectors, &SheetsOAuthConnector{Client: client, TokenFile: cfg.Queue.OAuthTokenFile, Range: cfg.Queue.ValuesRange})
		default:
			return nil, services.Wrap(services.ErrConfiguration, "workqueue", "build connectors", fmt.Sprintf("unknown strategy %q", name), nil)
		}
	}
	return connectors, nil
}

// Strategy reports the active connection strategy, or "fallback" when none connected.
func (s *Source) Strategy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return StrategyFallback
	}
	return s.conn.Strategy()
}

// ListPending returns pending items in queue order. When no strategy connects
// it returns the built-in sample set with a nil error. A read failure on an
// established connection is returned to the caller.
func (s *Source) ListPending(ctx context.Context, ref string) ([]WorkItem, error) {
	items, err := s.List(ctx, ref)
	if err != nil {
		return nil, err
	}
	pending := items[:0]
	for _, item := range items {
		if item.Status == StatusPending {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

// List returns every row with its classified status.
func (s *Source) List(ctx context.Context, ref string) ([]WorkItem, error) {
	conn := s.connection(ctx, ref)
	if conn == nil {
		logging.WarnWithContext(s.logger, "no queue strategy connected; using sample items", "queue_fallback",
			logging.String("source_ref", ref),
			logging.String(logging.FieldImpact, "sample listings are processed instead of the real queue"),
			logging.String(logging.FieldErrorHint, "check queue.source_ref, credentials, and sharing settings"),
		)
		if s.fallback != nil {
			s.fallback.QueueFallback()
		}
		return SampleItems(s.now().Format("2006-01-02")), nil
	}

	table, err := conn.Fetch(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrBackendUnavailable, "workqueue", "fetch", conn.Strategy(), err)
	}
	s.mu.Lock()
	s.header = append([]string(nil), table.Header...)
	s.mu.Unlock()

	items := s.mapRows(table)
	s.logger.Debug("queue rows loaded",
		logging.String(logging.FieldStrategy, conn.Strategy()),
		logging.Int("rows", len(table.Rows)),
	)
	return items, nil
}

func (s *Source) mapRows(table Table) []WorkItem {
	items := make([]WorkItem, 0, len(table.Rows))
	for idx, row := range table.Rows {
		rec := newRecord(table.Header, row)
		raw := rec.lookup(statusFields)
		item := WorkItem{
			ID:          int64(idx) + 2,
			Subject:     rec.lookup(addressFields),
			Category:    rec.lookup(typeFields),
			Annotation:  rec.lookup(noticeFields),
			Status:      ClassifyStatus(raw),
			RawStatus:   raw,
			Priority:    rec.lookup(priorityFields),
			CreatedDate: rec.lookup(createdFields),
		}
		if item.Category == "" {
			item.Category = DefaultCategory
		}
		if item.Annotation == "" {
			item.Annotation = s.defaultNotice
		}
		if item.Priority == "" {
			item.Priority = "medium"
		}
		if item.CreatedDate == "" {
			item.CreatedDate = s.now().Format("2006-01-02")
		}
		items = append(items, item)
	}
	return items
}

// connection returns the cached connection for ref, negotiating one if needed.
// A nil result means every strategy failed. Switching to a different ref
// drops and closes the previous connection first, so a failed switch never
// leaves writes aimed at the old queue.
func (s *Source) connection(ctx context.Context, ref string) Connection {
	s.mu.Lock()
	if s.conn != nil && s.ref == ref {
		conn := s.conn
		s.mu.Unlock()
		return conn
	}
	var stale Connection
	if s.ref != ref {
		stale = s.conn
		s.conn = nil
		s.header = nil
		s.ref = ref
	}
	s.mu.Unlock()
	s.closeConnection(stale)

	var failures []error
	for _, connector := range s.connectors {
		conn, err := connector.Connect(ctx, ref)
		if err != nil {
			failures = append(failures, err)
			level := slog.LevelInfo
			if errors.Is(err, ErrNotConfigured) {
				level = slog.LevelDebug
			}
			s.logger.Log(ctx, level, "queue strategy unavailable",
				logging.String(logging.FieldStrategy, connector.Name()),
				logging.Error(err),
			)
			continue
		}
		s.mu.Lock()
		if s.ref != ref || s.conn != nil {
			// A concurrent caller won the race or moved to another ref.
			s.mu.Unlock()
			s.closeConnection(conn)
			return s.connection(ctx, ref)
		}
		s.conn = conn
		s.header = nil
		s.mu.Unlock()
		s.logger.Info("queue connected",
			logging.String(logging.FieldStrategy, conn.Strategy()),
			logging.String("source_ref", ref),
		)
		return conn
	}
	if len(failures) > 0 {
		s.logger.Debug("all queue strategies failed", logging.Error(errors.Join(failures...)))
	}
	return nil
}

// Ref reports the queue reference the source is currently bound to.
func (s *Source) Ref() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref
}

// Close releases the cached connection. The source renegotiates on next use.
func (s *Source) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.header = nil
	s.ref = ""
	s.mu.Unlock()
	if closer, ok := conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *Source) closeConnection(conn Connection) {
	closer, ok := conn.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		s.logger.Debug("queue connection close failed",
			logging.String(logging.FieldStrategy, conn.Strategy()),
			logging.Error(err),
		)
	}
}

// UpdateStatus writes the status label and optional reference for row id. It
// never fails: missing columns, read-only connections and write errors are logged.
func (s *Source) UpdateStatus(ctx context.Context, id int64, status Status, reference string) {
	label := s.label(status)
	logger := s.logger.With(logging.Int64(logging.FieldItemID, id), logging.String("status", label))

	s.mu.Lock()
	conn := s.conn
	header := append([]string(nil), s.header...)
	s.mu.Unlock()

	if conn == nil {
		logger.Info("queue not connected; status update recorded locally only")
		return
	}
	writer, ok := conn.(CellWriter)
	if !ok {
		logger.Info("queue connection is read-only; status update skipped",
			logging.String(logging.FieldStrategy, conn.Strategy()))
		return
	}
	if len(header) == 0 {
		table, err := conn.Fetch(ctx)
		if err != nil {
			logging.WarnWithContext(logger, "status update skipped; header unavailable", "queue_update_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "queue row keeps its previous status"),
			)
			return
		}
		header = table.Header
	}

	statusCol := findColumn(header, statusHeaders)
	if statusCol == 0 {
		logging.WarnWithContext(logger, "status column not found; status update skipped", "queue_update_skipped",
			logging.String(logging.FieldImpact, "queue row keeps its previous status"),
			logging.String(logging.FieldErrorHint, "add a status/상태 column to the queue"),
		)
	} else if err := writer.WriteCell(ctx, Cell{Row: id, Column: statusCol, Header: header[statusCol-1]}, label); err != nil {
		logging.WarnWithContext(logger, "status update failed", "queue_update_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "queue row keeps its previous status"),
		)
	} else {
		logger.Info("queue status updated")
	}

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return
	}
	urlCol := findColumn(header, urlHeaders)
	if urlCol == 0 {
		logging.WarnWithContext(logger, "reference column not found; reference not written", "queue_update_skipped",
			logging.String("reference", reference),
			logging.String(logging.FieldImpact, "published reference only available in logs and history"),
			logging.String(logging.FieldErrorHint, "add a url/링크 column to the queue"),
		)
		return
	}
	if err := writer.WriteCell(ctx, Cell{Row: id, Column: urlCol, Header: header[urlCol-1]}, reference); err != nil {
		logging.WarnWithContext(logger, "reference update failed", "queue_update_failed",
			logging.Error(err),
			logging.String("reference", reference),
		)
	}
}

func (s *Source) label(status Status) string {
	var label string
	switch status {
	case StatusPending:
		label = s.labels.Pending
	case StatusInProgress:
		label = s.labels.InProgress
	case StatusDone:
		label = s.labels.Done
	case StatusError:
		label = s.labels.Error
	}
	if label == "" {
		label = string(status)
	}
	return label
}
