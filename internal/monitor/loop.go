package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"listingcast/internal/logging"
	"listingcast/internal/pipeline"
	"listingcast/internal/services"
	"listingcast/internal/workqueue"
)

// panicStatusLimit caps the error text written for a recovered panic.
const panicStatusLimit = 100

func (m *Monitor) run(ctx context.Context, sourceRef string, generation uint64) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		m.workerAlive = false
		m.current = nil
		// The worker exited without Stop, e.g. the parent context ended.
		var cancel context.CancelFunc
		if m.running && m.generation == generation {
			m.running = false
			cancel = m.cancel
			m.cancel = nil
		}
		m.mu.Unlock()
		if cancel != nil {
			cancel()
			m.logger.Info("monitor worker exited", logging.String(logging.FieldEventType, "monitor_exit"))
		}
	}()

	for {
		wait := m.settings.CheckInterval
		if err := m.poll(ctx, sourceRef); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setLastError(err)
			m.metrics.MonitorPoll("error")
			m.logger.Error("queue poll failed; backing off",
				logging.Error(err),
				logging.Duration("backoff", m.settings.ErrorBackoff),
				logging.String(logging.FieldEventType, "monitor_poll_failed"),
				logging.String(logging.FieldErrorHint, "check queue.source_ref and connectivity"),
			)
			wait = m.settings.ErrorBackoff
		}
		if !m.sleep(ctx, wait) {
			return
		}
	}
}

// poll runs one discovery cycle. Panics are converted to errors so the
// loop keeps running.
func (m *Monitor) poll(ctx context.Context, sourceRef string) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("poll panic: %v", recovered)
		}
	}()

	items, err := m.queue.ListPending(ctx, sourceRef)
	m.mu.Lock()
	m.lastCheck = m.now()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.metrics.MonitorPoll("ok")

	fresh := m.unseen(items)
	if len(fresh) == 0 {
		m.logger.Debug("no new queue rows", logging.Int("pending", len(items)))
		return nil
	}
	m.logger.Info("new queue rows discovered",
		logging.Int("pending", len(items)),
		logging.Int("new", len(fresh)),
		logging.String(logging.FieldEventType, "monitor_discovered"),
	)

	for _, item := range fresh {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !m.processItem(ctx, item) {
			continue
		}
		if !m.sleep(ctx, m.settings.Cooldown) {
			return ctx.Err()
		}
	}
	return nil
}

// unseen filters items already handled, preserving queue order.
func (m *Monitor) unseen(items []workqueue.WorkItem) []workqueue.WorkItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fresh := make([]workqueue.WorkItem, 0, len(items))
	for _, item := range items {
		if _, ok := m.processed[item.Key()]; ok {
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh
}

// processItem handles one row and reports whether the pipeline was invoked.
// The row's key is recorded as seen unless shutdown interrupted its run.
func (m *Monitor) processItem(ctx context.Context, item workqueue.WorkItem) (invoked bool) {
	ctx = services.WithItemID(ctx, item.ID)
	logger := logging.WithContext(ctx, m.logger).With(logging.String(logging.FieldSubject, item.Subject))
	requeue := false
	defer func() {
		if !requeue {
			m.markSeen(item.Key())
		}
	}()
	defer func() {
		if recovered := recover(); recovered != nil {
			msg := fmt.Sprint(recovered)
			logger.Error("row processing panicked",
				logging.String("panic", msg),
				logging.String(logging.FieldEventType, "monitor_item_panic"),
				logging.String(logging.FieldImpact, "row marked as error and will not be retried"),
				logging.Alert("monitor_panic"),
			)
			m.setLastError(errors.New(msg))
			m.metrics.MonitorItem("panic")
			m.queue.UpdateStatus(context.WithoutCancel(ctx), item.ID, workqueue.StatusError,
				services.Truncate("processing failed: "+msg, panicStatusLimit))
		}
		m.setCurrent(nil)
	}()

	if strings.TrimSpace(item.Subject) == "" {
		logging.WarnWithContext(logger, "row has no address; skipping", "monitor_item_skipped",
			logging.String(logging.FieldImpact, "row ignored until the process restarts"),
			logging.String(logging.FieldErrorHint, "fill in the address column"),
		)
		m.metrics.MonitorItem("skipped")
		return false
	}

	m.setCurrent(&Activity{ItemID: item.ID, Subject: item.Subject, StartedAt: m.now()})
	m.queue.UpdateStatus(ctx, item.ID, workqueue.StatusInProgress, "")
	invoked = true

	result := m.runner.Run(ctx, pipeline.JobFromItem(item), m.trackProgress)
	m.setLastResult(result)
	if !result.Succeeded() && ctx.Err() != nil {
		logger.Info("row interrupted by shutdown; returned to the queue",
			logging.String(logging.FieldEventType, "monitor_item_requeued"),
			logging.String("error", result.Error),
		)
		m.metrics.MonitorItem("interrupted")
		m.queue.UpdateStatus(context.WithoutCancel(ctx), item.ID, workqueue.StatusPending, "")
		requeue = true
		return true
	}
	m.metrics.MonitorItem(string(result.Outcome))

	if result.Succeeded() {
		if err := m.notifier.NotifyCompleted(ctx, item.Subject, result.PublishedReference, result.Artifacts[pipeline.ArtifactSlides]); err != nil {
			logger.Debug("completion notification failed", logging.Error(err))
		}
		return true
	}
	m.setLastError(errors.New(result.Error))
	if err := m.notifier.NotifyFailed(context.WithoutCancel(ctx), item.Subject, errors.New(result.Error)); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
	return true
}

func (m *Monitor) trackProgress(message string, percent int) error {
	m.mu.Lock()
	if m.current != nil {
		m.current.Message = message
		m.current.Percent = percent
	}
	m.mu.Unlock()
	if m.observer != nil {
		return m.observer(message, percent)
	}
	return nil
}

// sleep waits total in Tick increments and reports false once ctx ends.
func (m *Monitor) sleep(ctx context.Context, total time.Duration) bool {
	for remaining := total; remaining > 0; remaining -= m.settings.Tick {
		timer := time.NewTimer(min(m.settings.Tick, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
	return ctx.Err() == nil
}
