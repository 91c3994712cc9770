package publish

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"listingcast/internal/logging"
	"listingcast/internal/services"
)

// Summary is what an operator sees before approving an upload.
type Summary struct {
	Subject   string
	Title     string
	VideoPath string
	Backend   string
}

// Gate asks for explicit approval before an upload.
type Gate interface {
	Confirm(ctx context.Context, summary Summary) (bool, error)
}

// AlwaysConfirm approves every upload.
type AlwaysConfirm struct{}

// Confirm implements Gate.
func (AlwaysConfirm) Confirm(context.Context, Summary) (bool, error) { return true, nil }

// ConsoleGate prompts on out and reads y/N answers from in. A single
// goroutine owns in for the gate's lifetime, so input typed ahead of a
// prompt is kept for the next Confirm.
type ConsoleGate struct {
	in  io.Reader
	out io.Writer

	once  sync.Once
	lines chan consoleLine
}

type consoleLine struct {
	text string
	err  error
}

// NewConsoleGate returns a gate reading answers from in.
func NewConsoleGate(in io.Reader, out io.Writer) *ConsoleGate {
	return &ConsoleGate{in: in, out: out, lines: make(chan consoleLine)}
}

func (g *ConsoleGate) readLines() {
	defer close(g.lines)
	reader := bufio.NewReader(g.in)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			g.lines <- consoleLine{text: line}
		}
		if err != nil {
			if err != io.EOF {
				g.lines <- consoleLine{err: err}
			}
			return
		}
	}
}

// Confirm implements Gate.
func (g *ConsoleGate) Confirm(ctx context.Context, summary Summary) (bool, error) {
	g.once.Do(func() { go g.readLines() })
	fmt.Fprintf(g.out, "\nReady to publish via %s\n  Subject: %s\n  Title:   %s\n  Video:   %s\nPublish now? [y/N]: ",
		summary.Backend, summary.Subject, summary.Title, summary.VideoPath)

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line, ok := <-g.lines:
		if !ok {
			return false, nil
		}
		if line.err != nil {
			return false, fmt.Errorf("read confirmation: %w", line.err)
		}
		switch strings.ToLower(strings.TrimSpace(line.text)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

// Approval is an upload parked until an operator decides.
type Approval struct {
	ID          int64
	Summary     Summary
	RequestedAt time.Time
	ExpiresAt   time.Time
}

type pendingApproval struct {
	Approval
	decision chan bool
}

// ApprovalGate parks each upload until Approve or Reject is called for it.
// Requests that wait longer than the timeout are rejected.
type ApprovalGate struct {
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	nextID  int64
	pending map[int64]*pendingApproval
}

// NewApprovalGate builds a gate that waits at most timeout per request.
func NewApprovalGate(timeout time.Duration, logger *slog.Logger) *ApprovalGate {
	return &ApprovalGate{
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "publish"),
		now:     time.Now,
		pending: make(map[int64]*pendingApproval),
	}
}

// Confirm implements Gate.
func (g *ApprovalGate) Confirm(ctx context.Context, summary Summary) (bool, error) {
	entry := g.park(summary)
	defer g.remove(entry.ID)

	g.logger.Info("publish awaiting approval",
		logging.Int64("approval_id", entry.ID),
		logging.String(logging.FieldSubject, summary.Subject),
		logging.Duration("timeout", g.timeout),
		logging.String(logging.FieldEventType, "publish_approval_requested"),
	)

	var expired <-chan time.Time
	if g.timeout > 0 {
		timer := time.NewTimer(g.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case approved := <-entry.decision:
		return approved, nil
	case <-expired:
		logging.WarnWithContext(g.logger, "publish approval timed out", "publish_approval_timeout",
			logging.Int64("approval_id", entry.ID),
			logging.String(logging.FieldSubject, summary.Subject),
			logging.String(logging.FieldImpact, "upload cancelled; item marked as error"),
			logging.String(logging.FieldErrorHint, "approve pending uploads with `listingcast approvals approve ID` or enable unattended publishing"),
		)
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Pending lists parked requests ordered by id.
func (g *ApprovalGate) Pending() []Approval {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Approval, 0, len(g.pending))
	for _, entry := range g.pending {
		out = append(out, entry.Approval)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Approve releases the request with the given id for upload.
func (g *ApprovalGate) Approve(id int64) error {
	return g.decide(id, true)
}

// Reject cancels the request with the given id.
func (g *ApprovalGate) Reject(id int64) error {
	return g.decide(id, false)
}

func (g *ApprovalGate) decide(id int64, approved bool) error {
	g.mu.Lock()
	entry, ok := g.pending[id]
	if ok {
		delete(g.pending, id)
	}
	g.mu.Unlock()
	if !ok {
		return services.Wrap(services.ErrNotFound, "publish", "approval", fmt.Sprintf("no pending approval %d", id), nil)
	}
	entry.decision <- approved
	return nil
}

func (g *ApprovalGate) park(summary Summary) *pendingApproval {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	now := g.now()
	entry := &pendingApproval{
		Approval: Approval{ID: g.nextID, Summary: summary, RequestedAt: now},
		decision: make(chan bool, 1),
	}
	if g.timeout > 0 {
		entry.ExpiresAt = now.Add(g.timeout)
	}
	g.pending[entry.ID] = entry
	return entry
}

func (g *ApprovalGate) remove(id int64) {
	g.mu.Lock()
	delete(g.pending, id)
	g.mu.Unlock()
}
