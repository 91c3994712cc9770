package workqueue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"listingcast/internal/config"
	"listingcast/internal/logging"
	"listingcast/internal/services"
	"listingcast/internal/workqueue"
)

type fakeConnector struct {
	name     string
	conn     workqueue.Connection
	err      error
	attempts int
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) Connect(context.Context, string) (workqueue.Connection, error) {
	f.attempts++
	if f.err != nil {
		return nil, f.err
	}
	return f.conn, nil
}

type fakeConnection struct {
	strategy string
	table    workqueue.Table
	fetchErr error
	fetches  int
}

func (f *fakeConnection) Strategy() string { return f.strategy }

func (f *fakeConnection) Fetch(context.Context) (workqueue.Table, error) {
	f.fetches++
	if f.fetchErr != nil {
		return workqueue.Table{}, f.fetchErr
	}
	return f.table, nil
}

type write struct {
	cell  workqueue.Cell
	value string
}

type writableConnection struct {
	fakeConnection
	mu     sync.Mutex
	writes []write
}

func (w *writableConnection) WriteCell(_ context.Context, cell workqueue.Cell, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, write{cell: cell, value: value})
	return nil
}

type closableConnection struct {
	writableConnection
	closed int
}

func (c *closableConnection) Close() error {
	c.closed++
	return nil
}

// refConnector connects only to the refs it knows about.
type refConnector struct {
	byRef map[string]workqueue.Connection
}

func (r *refConnector) Name() string { return "oauth" }

func (r *refConnector) Connect(_ context.Context, ref string) (workqueue.Connection, error) {
	conn, ok := r.byRef[ref]
	if !ok {
		return nil, errors.New("403 forbidden")
	}
	return conn, nil
}

type fallbackCounter struct{ n int }

func (f *fallbackCounter) QueueFallback() { f.n++ }

func newTestSource(connectors ...workqueue.Connector) *workqueue.Source {
	return workqueue.NewSource(workqueue.Options{
		Connectors:    connectors,
		Labels:        config.Default().Queue.StatusLabels,
		DefaultNotice: "기본 유의사항",
		Logger:        logging.NewNop(),
		Now:           func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
}

var queueTable = workqueue.Table{
	Header: []string{"address", "매물유형", "상태", "광고시 유의사항", "url"},
	Rows: [][]string{
		{"Seoul Gangnam Apt", "", "", "", ""},
		{"서울시 서초구 반포동", "오피스텔", "완료", "", "https://youtu.be/x"},
		{"", "", "대기중", "", ""},
		{"서울시 송파구", "아파트", "Pending", "방문 전 연락", ""},
	},
}

func TestListPendingMapsAndFiltersRows(t *testing.T) {
	conn := &fakeConnection{strategy: "public_csv", table: queueTable}
	source := newTestSource(&fakeConnector{name: "public_csv", conn: conn})

	items, err := source.ListPending(context.Background(), "ref")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 pending rows, got %d: %+v", len(items), items)
	}
	first := items[0]
	if first.ID != 2 || first.Subject != "Seoul Gangnam Apt" || first.Category != workqueue.DefaultCategory || first.Annotation != "기본 유의사항" {
		t.Fatalf("unexpected first item %+v", first)
	}
	if items[1].ID != 4 || items[1].Subject != "" {
		t.Fatalf("expected subject-less pending row to be returned, got %+v", items[1])
	}
	if items[2].ID != 5 || items[2].Annotation != "방문 전 연락" || items[2].Category != "아파트" {
		t.Fatalf("unexpected last item %+v", items[2])
	}
	if source.Strategy() != "public_csv" {
		t.Fatalf("unexpected strategy %q", source.Strategy())
	}
}

func TestListPendingCachesFirstSuccessfulStrategy(t *testing.T) {
	failing := &fakeConnector{name: "database", err: workqueue.ErrNotConfigured}
	winning := &fakeConnector{name: "public_csv", conn: &fakeConnection{strategy: "public_csv", table: queueTable}}
	unused := &fakeConnector{name: "api_key", conn: &fakeConnection{strategy: "api_key"}}
	source := newTestSource(failing, winning, unused)

	for i := 0; i < 3; i++ {
		if _, err := source.ListPending(context.Background(), "ref"); err != nil {
			t.Fatalf("ListPending: %v", err)
		}
	}
	if failing.attempts != 1 || winning.attempts != 1 || unused.attempts != 0 {
		t.Fatalf("expected single negotiation, got attempts %d/%d/%d", failing.attempts, winning.attempts, unused.attempts)
	}
}

func TestListPendingFallsBackToSamples(t *testing.T) {
	counter := &fallbackCounter{}
	source := workqueue.NewSource(workqueue.Options{
		Connectors: []workqueue.Connector{
			&fakeConnector{name: "database", err: errors.New("down")},
			&fakeConnector{name: "public_csv", err: errors.New("403")},
		},
		Logger:   logging.NewNop(),
		Fallback: counter,
	})
	items, err := source.ListPending(context.Background(), "ref")
	if err != nil {
		t.Fatalf("expected no error on total failure, got %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 sample items, got %d", len(items))
	}
	if source.Strategy() != workqueue.StrategyFallback || counter.n != 1 {
		t.Fatalf("unexpected fallback state %q %d", source.Strategy(), counter.n)
	}
}

func TestListPendingReportsFetchFailureOnEstablishedConnection(t *testing.T) {
	conn := &fakeConnection{strategy: "public_csv", table: queueTable}
	source := newTestSource(&fakeConnector{name: "public_csv", conn: conn})
	if _, err := source.ListPending(context.Background(), "ref"); err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	conn.fetchErr = errors.New("timeout")
	_, err := source.ListPending(context.Background(), "ref")
	if !errors.Is(err, services.ErrBackendUnavailable) {
		t.Fatalf("expected backend unavailable error, got %v", err)
	}
}

func TestUpdateStatusWritesLabelAndReference(t *testing.T) {
	conn := &writableConnection{fakeConnection: fakeConnection{strategy: "oauth", table: queueTable}}
	source := newTestSource(&fakeConnector{name: "oauth", conn: conn})
	if _, err := source.ListPending(context.Background(), "ref"); err != nil {
		t.Fatalf("ListPending: %v", err)
	}

	source.UpdateStatus(context.Background(), 2, workqueue.StatusInProgress, "")
	source.UpdateStatus(context.Background(), 2, workqueue.StatusDone, "https://youtu.be/abc")

	if len(conn.writes) != 3 {
		t.Fatalf("expected 3 cell writes, got %+v", conn.writes)
	}
	if conn.writes[0].cell.Column != 3 || conn.writes[0].value != "처리중" {
		t.Fatalf("unexpected in-progress write %+v", conn.writes[0])
	}
	if conn.writes[1].value != "완료" || conn.writes[2].cell.Column != 5 || conn.writes[2].value != "https://youtu.be/abc" {
		t.Fatalf("unexpected done writes %+v", conn.writes[1:])
	}
}

func TestUpdateStatusNeverFails(t *testing.T) {
	unconnected := newTestSource()
	unconnected.UpdateStatus(context.Background(), 2, workqueue.StatusError, "boom")

	readOnly := newTestSource(&fakeConnector{name: "public_csv", conn: &fakeConnection{strategy: "public_csv", table: queueTable}})
	if _, err := readOnly.ListPending(context.Background(), "ref"); err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	readOnly.UpdateStatus(context.Background(), 2, workqueue.StatusDone, "ref")

	noColumns := &writableConnection{fakeConnection: fakeConnection{strategy: "oauth", table: workqueue.Table{Header: []string{"address"}}}}
	source := newTestSource(&fakeConnector{name: "oauth", conn: noColumns})
	if _, err := source.ListPending(context.Background(), "ref"); err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	source.UpdateStatus(context.Background(), 2, workqueue.StatusDone, "https://youtu.be/abc")
	if len(noColumns.writes) != 0 {
		t.Fatalf("expected no writes without matching columns, got %+v", noColumns.writes)
	}
}

func TestFailedRefSwitchDropsPreviousConnection(t *testing.T) {
	first := &closableConnection{writableConnection: writableConnection{fakeConnection: fakeConnection{strategy: "oauth", table: queueTable}}}
	source := newTestSource(&refConnector{byRef: map[string]workqueue.Connection{"sheet-a": first}})
	if _, err := source.ListPending(context.Background(), "sheet-a"); err != nil {
		t.Fatalf("ListPending sheet-a: %v", err)
	}

	items, err := source.List(context.Background(), "sheet-b")
	if err != nil {
		t.Fatalf("List sheet-b: %v", err)
	}
	if len(items) != len(workqueue.SampleItems("2026-03-01")) {
		t.Fatalf("expected sample items for unreachable ref, got %+v", items)
	}
	if got := source.Strategy(); got != workqueue.StrategyFallback {
		t.Fatalf("expected fallback strategy after failed switch, got %q", got)
	}
	if got := source.Ref(); got != "sheet-b" {
		t.Fatalf("expected source bound to sheet-b, got %q", got)
	}
	if first.closed != 1 {
		t.Fatalf("expected previous connection closed once, got %d", first.closed)
	}

	source.UpdateStatus(context.Background(), 2, workqueue.StatusDone, "https://youtu.be/abc")
	if len(first.writes) != 0 {
		t.Fatalf("expected no writes to the previous queue, got %+v", first.writes)
	}
}

func TestRefSwitchWritesToNewQueue(t *testing.T) {
	first := &closableConnection{writableConnection: writableConnection{fakeConnection: fakeConnection{strategy: "oauth", table: queueTable}}}
	second := &closableConnection{writableConnection: writableConnection{fakeConnection: fakeConnection{strategy: "oauth", table: queueTable}}}
	source := newTestSource(&refConnector{byRef: map[string]workqueue.Connection{"sheet-a": first, "sheet-b": second}})
	for _, ref := range []string{"sheet-a", "sheet-b"} {
		if _, err := source.ListPending(context.Background(), ref); err != nil {
			t.Fatalf("ListPending %s: %v", ref, err)
		}
	}
	source.UpdateStatus(context.Background(), 3, workqueue.StatusInProgress, "")
	if len(first.writes) != 0 || len(second.writes) != 1 {
		t.Fatalf("expected the write on sheet-b only, got %d/%d", len(first.writes), len(second.writes))
	}
	if first.closed != 1 || second.closed != 0 {
		t.Fatalf("unexpected close counts %d/%d", first.closed, second.closed)
	}

	if err := source.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if second.closed != 1 || source.Strategy() != workqueue.StrategyFallback {
		t.Fatalf("expected Close to release the active connection, closed=%d strategy=%q", second.closed, source.Strategy())
	}
}

func TestNewConnectorsFollowsConfiguredOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Queue.Strategies = []string{"oauth", "public_csv"}
	connectors, err := workqueue.NewConnectors(&cfg, nil)
	if err != nil {
		t.Fatalf("NewConnectors: %v", err)
	}
	if len(connectors) != 2 || connectors[0].Name() != "oauth" || connectors[1].Name() != "public_csv" {
		t.Fatalf("unexpected connectors %v", connectors)
	}
	cfg.Queue.Strategies = []string{"fax"}
	if _, err := workqueue.NewConnectors(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
