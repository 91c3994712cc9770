package progress_test

import (
	"errors"
	"testing"

	"listingcast/internal/logging"
	"listingcast/internal/progress"
)

func TestDefaultStageTable(t *testing.T) {
	stages := progress.Default()
	if len(stages) != 10 {
		t.Fatalf("expected 10 stages, got %d", len(stages))
	}
	if stages.Key(progress.Finalize) != "finalize" {
		t.Fatalf("unexpected terminal stage %q", stages.Key(progress.Finalize))
	}
	if got := stages.Label(12); got != "stage 13 processing" {
		t.Fatalf("unexpected fallback label %q", got)
	}
	if got := stages.Label(-1); got != "stage 0 processing" {
		t.Fatalf("unexpected fallback label for negative stage %q", got)
	}
}

func TestPercentBoundsAndMonotonicity(t *testing.T) {
	const total = 10
	if got := progress.Percent(9, 100, total); got != 100 {
		t.Fatalf("percent(9,100) = %d, want 100", got)
	}
	if got := progress.Percent(0, 0, total); got != 0 {
		t.Fatalf("percent(0,0) = %d, want 0", got)
	}
	if got := progress.Percent(3, 50, total); got != 35 {
		t.Fatalf("percent(3,50) = %d, want 35", got)
	}
	for s := 0; s < total; s++ {
		for sub := 0; sub <= 100; sub += 10 {
			p := progress.Percent(s, sub, total)
			if p < 0 || p > 100 {
				t.Fatalf("percent(%d,%d) = %d out of range", s, sub, p)
			}
			if p < progress.Percent(s, 0, total) {
				t.Fatalf("percent(%d,%d) below stage baseline", s, sub)
			}
			for s2 := s + 1; s2 < total; s2++ {
				if p > progress.Percent(s2, 0, total) {
					t.Fatalf("percent(%d,%d)=%d exceeds percent(%d,0)", s, sub, p, s2)
				}
			}
		}
	}
	if got := progress.Percent(25, 300, total); got != 100 {
		t.Fatalf("expected clamp to 100, got %d", got)
	}
	if got := progress.Percent(-3, -5, total); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestTrackerSubstepUsesLastStage(t *testing.T) {
	var got []int
	tracker := progress.NewTracker(progress.Default(), func(_ string, percent int) error {
		got = append(got, percent)
		return nil
	}, logging.NewNop())

	tracker.Update(progress.Narration, "", 0)
	tracker.Substep("halfway", 50)
	if tracker.Stage() != progress.Narration {
		t.Fatalf("expected current stage to remain narration, got %d", tracker.Stage())
	}
	if len(got) != 2 || got[0] != 50 || got[1] != 55 {
		t.Fatalf("unexpected observer percents %v", got)
	}
}

func TestTrackerSwallowsObserverFailures(t *testing.T) {
	calls := 0
	failing := progress.NewTracker(nil, func(string, int) error {
		calls++
		return errors.New("observer down")
	}, logging.NewNop())
	failing.Update(progress.Collect, "collecting", 0)

	panicking := progress.NewTracker(nil, func(string, int) error {
		calls++
		panic("observer exploded")
	}, logging.NewNop())
	if p := panicking.Update(progress.Finalize, "done", 100); p != 100 {
		t.Fatalf("expected 100 percent, got %d", p)
	}
	if calls != 2 {
		t.Fatalf("expected both observers invoked, got %d", calls)
	}
}

func TestParseRejectsEmptyTable(t *testing.T) {
	if _, err := progress.Parse([]byte("stages: []\n")); err == nil {
		t.Fatal("expected error for empty table")
	}
	stages, err := progress.Parse([]byte("stages:\n  - key: a\n    label: A\n"))
	if err != nil || len(stages) != 1 || stages.Label(0) != "A" {
		t.Fatalf("unexpected parse result %v %v", stages, err)
	}
}
