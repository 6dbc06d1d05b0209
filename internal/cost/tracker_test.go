package cost

import (
	"math"
	"sync"
	"testing"
)

func TestTracker_RecordAndReport(t *testing.T) {
	tracker := NewTracker(Rates{PromptPer1K: 0.01, CompletionPer1K: 0.03})

	tracker.Record("phase1", 1000, 500)
	tracker.Record("phase1", 2000, 1000)
	tracker.Record("phase2", 4000, 2000)

	p1 := tracker.Usage("phase1")
	if p1.Calls != 2 {
		t.Errorf("expected 2 phase1 calls, got %d", p1.Calls)
	}
	if p1.PromptTokens != 3000 || p1.CompletionTokens != 1500 {
		t.Errorf("unexpected phase1 tokens: %+v", p1)
	}

	report := tracker.Report()
	if report.Total.Calls != 3 {
		t.Errorf("expected 3 total calls, got %d", report.Total.Calls)
	}
	if report.Total.PromptTokens != 7000 {
		t.Errorf("expected 7000 total prompt tokens, got %d", report.Total.PromptTokens)
	}

	// 7000/1000*0.01 + 3500/1000*0.03 = 0.07 + 0.105
	wantUSD := 0.175
	if math.Abs(report.Total.EstimatedUSD-wantUSD) > 1e-9 {
		t.Errorf("expected total cost %f, got %f", wantUSD, report.Total.EstimatedUSD)
	}
}

func TestTracker_UnknownPhase(t *testing.T) {
	tracker := NewTracker(Rates{})
	usage := tracker.Usage("phase9")
	if usage.Calls != 0 || usage.PromptTokens != 0 {
		t.Errorf("expected zero usage for unknown phase, got %+v", usage)
	}
}

func TestTracker_ConcurrentRecord(t *testing.T) {
	tracker := NewTracker(Rates{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Record("phase1", 10, 5)
		}()
	}
	wg.Wait()

	usage := tracker.Usage("phase1")
	if usage.Calls != 50 {
		t.Errorf("expected 50 calls, got %d", usage.Calls)
	}
	if usage.PromptTokens != 500 {
		t.Errorf("expected 500 prompt tokens, got %d", usage.PromptTokens)
	}
}

func TestTracker_PhaseNames(t *testing.T) {
	tracker := NewTracker(Rates{})
	tracker.Record("phase2", 1, 1)
	tracker.Record("phase1", 1, 1)

	names := tracker.PhaseNames()
	if len(names) != 2 || names[0] != "phase1" || names[1] != "phase2" {
		t.Errorf("expected sorted phase names, got %v", names)
	}
}
