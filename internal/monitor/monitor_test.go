package monitor_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"listingcast/internal/logging"
	"listingcast/internal/monitor"
	"listingcast/internal/pipeline"
	"listingcast/internal/progress"
	"listingcast/internal/publish"
	"listingcast/internal/render"
	"listingcast/internal/testsupport"
	"listingcast/internal/workqueue"
)

type statusCall struct {
	id        int64
	status    workqueue.Status
	reference string
}

// recordingQueue serves a fixed pending list, or delegates to an inner
// queue, and records every status write.
type recordingQueue struct {
	inner monitor.Queue

	mu      sync.Mutex
	items   []workqueue.WorkItem
	errs    []error
	lists   int
	updates []statusCall
}

func (q *recordingQueue) ListPending(ctx context.Context, ref string) ([]workqueue.WorkItem, error) {
	q.mu.Lock()
	q.lists++
	if len(q.errs) > 0 {
		err := q.errs[0]
		q.errs = q.errs[1:]
		q.mu.Unlock()
		return nil, err
	}
	items := append([]workqueue.WorkItem(nil), q.items...)
	q.mu.Unlock()
	if q.inner != nil {
		return q.inner.ListPending(ctx, ref)
	}
	return items, nil
}

func (q *recordingQueue) UpdateStatus(ctx context.Context, id int64, status workqueue.Status, reference string) {
	q.mu.Lock()
	q.updates = append(q.updates, statusCall{id: id, status: status, reference: reference})
	q.mu.Unlock()
	if q.inner != nil {
		q.inner.UpdateStatus(ctx, id, status, reference)
	}
}

func (q *recordingQueue) listCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lists
}

func (q *recordingQueue) statusCalls() []statusCall {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]statusCall(nil), q.updates...)
}

type stubRunner struct {
	mu     sync.Mutex
	jobs   []pipeline.Job
	panics map[string]bool
	fail   map[string]bool
}

func (r *stubRunner) Run(_ context.Context, job pipeline.Job, observer progress.Observer) pipeline.Result {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	shouldPanic := r.panics[job.Subject]
	shouldFail := r.fail[job.Subject]
	r.mu.Unlock()
	if shouldPanic {
		panic("renderer exploded")
	}
	if observer != nil {
		_ = observer("halfway", 50)
	}
	if shouldFail {
		return pipeline.Result{Outcome: pipeline.OutcomeFailure, Error: "boom", SourceItemID: job.ItemID, HasItem: true}
	}
	return pipeline.Result{Outcome: pipeline.OutcomeSuccess, PublishedReference: "ref-" + job.Subject, SourceItemID: job.ItemID, HasItem: true}
}

func (r *stubRunner) subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Subject)
	}
	return out
}

func fastSettings() monitor.Settings {
	return monitor.Settings{
		CheckInterval: 10 * time.Millisecond,
		Cooldown:      time.Millisecond,
		ErrorBackoff:  5 * time.Millisecond,
		Tick:          time.Millisecond,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func item(id int64, subject string) workqueue.WorkItem {
	return workqueue.WorkItem{ID: id, Subject: subject, Category: workqueue.DefaultCategory, Status: workqueue.StatusPending}
}

func TestMonitorProcessesEachRowOnce(t *testing.T) {
	queue := &recordingQueue{items: []workqueue.WorkItem{item(2, "A"), item(3, "B")}}
	runner := &stubRunner{}
	m := monitor.New(queue, runner, fastSettings(), monitor.WithLogger(logging.NewNop()))

	if !m.Start(context.Background(), "ref") {
		t.Fatal("expected first start to succeed")
	}
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool { return queue.listCount() >= 4 })
	m.Stop()

	if got := runner.subjects(); strings.Join(got, ",") != "A,B" {
		t.Fatalf("expected rows processed once in queue order, got %v", got)
	}
	if !m.Seen("2_A") || !m.Seen("3_B") {
		t.Fatalf("expected composite keys recorded, got %v", m.Processed())
	}
	inProgress := 0
	for _, call := range queue.statusCalls() {
		if call.status == workqueue.StatusInProgress {
			inProgress++
		}
	}
	if inProgress != 2 {
		t.Fatalf("expected one in_progress write per row, got %+v", queue.statusCalls())
	}
}

func TestMonitorDistinguishesReusedIDs(t *testing.T) {
	queue := &recordingQueue{items: []workqueue.WorkItem{item(2, "A")}}
	runner := &stubRunner{}
	m := monitor.New(queue, runner, fastSettings(), monitor.WithLogger(logging.NewNop()))
	m.Start(context.Background(), "ref")
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool { return len(runner.subjects()) == 1 })
	queue.mu.Lock()
	queue.items = []workqueue.WorkItem{item(2, "A"), item(2, "C")}
	queue.mu.Unlock()
	waitFor(t, 2*time.Second, func() bool { return len(runner.subjects()) == 2 })
	m.Stop()

	if got := runner.subjects(); strings.Join(got, ",") != "A,C" {
		t.Fatalf("expected same id with new subject to be processed, got %v", got)
	}
}

func TestMonitorStartWhileRunningIsNoop(t *testing.T) {
	queue := &recordingQueue{}
	m := monitor.New(queue, &stubRunner{}, fastSettings(), monitor.WithLogger(logging.NewNop()))
	if !m.Start(context.Background(), "ref") {
		t.Fatal("expected start")
	}
	defer m.Stop()
	if m.Start(context.Background(), "other") {
		t.Fatal("expected second start to be ignored")
	}
	if status := m.Status(); status.SourceRef != "ref" || !status.Running || !status.WorkerAlive {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestMonitorSkipsRowsWithoutSubject(t *testing.T) {
	queue := &recordingQueue{items: []workqueue.WorkItem{item(4, "  ")}}
	runner := &stubRunner{}
	m := monitor.New(queue, runner, fastSettings(), monitor.WithLogger(logging.NewNop()))
	m.Start(context.Background(), "ref")
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool { return m.Status().ProcessedCount == 1 })
	m.Stop()

	if len(runner.subjects()) != 0 {
		t.Fatalf("pipeline must not run for rows without a subject, got %v", runner.subjects())
	}
	if calls := queue.statusCalls(); len(calls) != 0 {
		t.Fatalf("skipped rows must not be written back, got %+v", calls)
	}
}

func TestMonitorStopInterruptsIntervalSleep(t *testing.T) {
	queue := &recordingQueue{}
	settings := fastSettings()
	settings.CheckInterval = time.Hour
	settings.Tick = 20 * time.Millisecond
	m := monitor.New(queue, &stubRunner{}, settings, monitor.WithLogger(logging.NewNop()))
	m.Start(context.Background(), "ref")

	waitFor(t, 2*time.Second, func() bool { return !m.Status().LastCheck.IsZero() })
	started := time.Now()
	m.Stop()
	if elapsed := time.Since(started); elapsed > time.Second {
		t.Fatalf("stop took %s", elapsed)
	}
	if status := m.Status(); status.Running || status.WorkerAlive {
		t.Fatalf("expected stopped monitor, got %+v", status)
	}
}

func TestMonitorExitsWhenParentContextEnds(t *testing.T) {
	queue := &recordingQueue{}
	settings := fastSettings()
	settings.CheckInterval = time.Hour
	m := monitor.New(queue, &stubRunner{}, settings, monitor.WithLogger(logging.NewNop()))
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx, "ref")
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool { return queue.listCount() == 1 })
	cancel()
	waitFor(t, time.Second, func() bool { return !m.Status().WorkerAlive })
	if m.Running() {
		t.Fatal("expected monitor to report stopped after its worker exited")
	}

	if !m.Start(context.Background(), "ref") {
		t.Fatal("expected restart after the worker exited")
	}
	waitFor(t, 2*time.Second, func() bool { return queue.listCount() == 2 })
	if status := m.Status(); !status.Running || !status.WorkerAlive {
		t.Fatalf("expected restarted monitor, got %+v", status)
	}
}

// blockingRunner holds each run until its context ends.
type blockingRunner struct {
	entered chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context, job pipeline.Job, _ progress.Observer) pipeline.Result {
	close(r.entered)
	<-ctx.Done()
	return pipeline.Result{Outcome: pipeline.OutcomeFailure, Error: ctx.Err().Error(), SourceItemID: job.ItemID, HasItem: true}
}

func TestMonitorStopReturnsRowInFlightToQueue(t *testing.T) {
	queue := &recordingQueue{items: []workqueue.WorkItem{item(2, "A")}}
	runner := &blockingRunner{entered: make(chan struct{})}
	m := monitor.New(queue, runner, fastSettings(), monitor.WithLogger(logging.NewNop()))
	m.Start(context.Background(), "ref")
	defer m.Stop()

	select {
	case <-runner.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("runner was not invoked")
	}
	m.Stop()

	calls := queue.statusCalls()
	if len(calls) != 2 || calls[0].status != workqueue.StatusInProgress || calls[1].status != workqueue.StatusPending {
		t.Fatalf("expected in_progress then pending, got %+v", calls)
	}
	if m.Seen("2_A") {
		t.Fatal("interrupted row must stay eligible for the next start")
	}
	if status := m.Status(); status.LastError != "" {
		t.Fatalf("shutdown must not be reported as a failure, got %q", status.LastError)
	}
}

func TestMonitorBacksOffAfterPollError(t *testing.T) {
	queue := &recordingQueue{
		items: []workqueue.WorkItem{item(2, "A")},
		errs:  []error{errors.New("sheet unreachable")},
	}
	runner := &stubRunner{}
	m := monitor.New(queue, runner, fastSettings(), monitor.WithLogger(logging.NewNop()))
	m.Start(context.Background(), "ref")
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool { return len(runner.subjects()) == 1 })
	m.Stop()
	if status := m.Status(); !strings.Contains(status.LastError, "sheet unreachable") {
		t.Fatalf("expected poll error recorded, got %q", status.LastError)
	}
}

func TestMonitorRecoversRunnerPanic(t *testing.T) {
	queue := &recordingQueue{items: []workqueue.WorkItem{item(2, "bad"), item(3, "good")}}
	runner := &stubRunner{panics: map[string]bool{"bad": true}}
	m := monitor.New(queue, runner, fastSettings(), monitor.WithLogger(logging.NewNop()))
	m.Start(context.Background(), "ref")
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool { return m.Seen("3_good") })
	waitFor(t, 2*time.Second, func() bool { return queue.listCount() >= 3 })
	m.Stop()

	if got := runner.subjects(); strings.Join(got, ",") != "bad,good" {
		t.Fatalf("panicking row must not be retried, got %v", got)
	}
	if !m.Seen("2_bad") {
		t.Fatal("panicking row must still be marked seen")
	}
	var errorWrites []statusCall
	for _, call := range queue.statusCalls() {
		if call.id == 2 && call.status == workqueue.StatusError {
			errorWrites = append(errorWrites, call)
		}
	}
	if len(errorWrites) != 1 || errorWrites[0].reference != "processing failed: renderer exploded" {
		t.Fatalf("expected one error write for the panicking row, got %+v", errorWrites)
	}
}

func TestMonitorFailedRowIsNotRetried(t *testing.T) {
	queue := &recordingQueue{items: []workqueue.WorkItem{item(2, "A")}}
	runner := &stubRunner{fail: map[string]bool{"A": true}}
	m := monitor.New(queue, runner, fastSettings(), monitor.WithLogger(logging.NewNop()))
	m.Start(context.Background(), "ref")
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool { return queue.listCount() >= 3 })
	m.Stop()

	if got := runner.subjects(); len(got) != 1 {
		t.Fatalf("failed row must be processed once, got %v", got)
	}
	status := m.Status()
	if status.LastError != "boom" || status.LastResult == nil || status.LastResult.Succeeded() {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestMonitorReportsProgressToObserver(t *testing.T) {
	queue := &recordingQueue{items: []workqueue.WorkItem{item(2, "A")}}
	var mu sync.Mutex
	var seen []int
	observer := func(_ string, percent int) error {
		mu.Lock()
		seen = append(seen, percent)
		mu.Unlock()
		return nil
	}
	m := monitor.New(queue, &stubRunner{}, fastSettings(), monitor.WithLogger(logging.NewNop()), monitor.WithObserver(observer))
	m.Start(context.Background(), "ref")
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	})
}

func TestMonitorEndToEndWithCSVQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := testsupport.WriteQueueCSV(t, testsupport.BaseDir(cfg), []string{"address", "status"}, []string{"Seoul Gangnam Apt", ""})
	source := workqueue.NewSource(workqueue.Options{
		Connectors: []workqueue.Connector{&workqueue.CSVExportConnector{}},
		Logger:     logging.NewNop(),
	})
	queue := &recordingQueue{inner: source}

	pending, err := source.ListPending(context.Background(), path)
	if err != nil || len(pending) != 1 || pending[0].ID != 2 {
		t.Fatalf("expected row 2 pending, got %+v (err %v)", pending, err)
	}

	sink := publish.NewSink(publish.SinkOptions{Client: publish.MockClient{}, Unattended: true, Logger: logging.NewNop()})
	p := pipeline.New(pipeline.Options{
		Renderers: render.Mock(),
		Publisher: sink,
		Status:    queue,
		OutputDir: cfg.Paths.OutputDir,
		Logger:    logging.NewNop(),
	})
	m := monitor.New(queue, p, fastSettings(), monitor.WithLogger(logging.NewNop()))
	m.Start(context.Background(), path)
	defer m.Stop()

	waitFor(t, 5*time.Second, func() bool { return m.Seen("2_Seoul Gangnam Apt") })
	before := queue.listCount()
	waitFor(t, 2*time.Second, func() bool { return queue.listCount() >= before+2 })
	m.Stop()

	calls := queue.statusCalls()
	if len(calls) != 2 {
		t.Fatalf("expected exactly two status writes, got %+v", calls)
	}
	if calls[0] != (statusCall{id: 2, status: workqueue.StatusInProgress}) {
		t.Fatalf("unexpected first write %+v", calls[0])
	}
	if calls[1].id != 2 || calls[1].status != workqueue.StatusDone || !strings.HasPrefix(calls[1].reference, "https://www.youtube.com/watch?v=mock_") {
		t.Fatalf("unexpected final write %+v", calls[1])
	}
	if status := m.Status(); status.ProcessedCount != 1 || status.LastResult == nil || !status.LastResult.Succeeded() {
		t.Fatalf("unexpected status %+v", status)
	}
}
