package traffic

import (
	"sync"
	"testing"
	"time"
)

func TestErrorRate_Empty(t *testing.T) {
	Reset()
	errs, total := ErrorRate(time.Minute)
	if errs != 0 || total != 0 {
		t.Errorf("ErrorRate() = (%d, %d), want (0, 0)", errs, total)
	}
}

func TestErrorRate_SuccessAndError(t *testing.T) {
	Reset()
	defer Reset()
	RecordSuccess()
	RecordSuccess()
	RecordError()
	errs, total := ErrorRate(time.Minute)
	if errs != 1 || total != 3 {
		t.Errorf("ErrorRate() = (%d, %d), want (1, 3)", errs, total)
	}
}

func TestBreached(t *testing.T) {
	tests := []struct {
		name      string
		successes int
		errors    int
		pct       int
		want      bool
	}{
		{"empty window", 0, 0, 50, false},
		{"below threshold", 9, 1, 20, false},
		{"at threshold", 8, 2, 20, true},
		{"above threshold", 1, 3, 50, true},
		{"disabled threshold", 0, 5, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tr Tracker
			for i := 0; i < tt.successes; i++ {
				tr.RecordSuccess()
			}
			for i := 0; i < tt.errors; i++ {
				tr.RecordError()
			}
			if got := tr.Breached(time.Minute, tt.pct); got != tt.want {
				t.Errorf("Breached(1m, %d) = %v, want %v", tt.pct, got, tt.want)
			}
		})
	}
}

func TestTracker_WindowExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := Tracker{now: func() time.Time { return now }}

	tr.RecordError()
	now = now.Add(90 * time.Second)
	tr.RecordSuccess()

	errs, total := tr.ErrorRate(time.Minute)
	if errs != 0 || total != 1 {
		t.Errorf("ErrorRate(1m) = (%d, %d), want (0, 1)", errs, total)
	}
	errs, total = tr.ErrorRate(5 * time.Minute)
	if errs != 1 || total != 2 {
		t.Errorf("ErrorRate(5m) = (%d, %d), want (1, 2)", errs, total)
	}

	now = now.Add(maxAge + time.Second)
	tr.RecordSuccess()
	if len(tr.errorTimes) != 0 {
		t.Errorf("errorTimes len = %d after prune, want 0", len(tr.errorTimes))
	}
}

func TestTracker_Concurrent(t *testing.T) {
	var tr Tracker
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); tr.RecordSuccess() }()
		go func() { defer wg.Done(); tr.RecordError() }()
	}
	wg.Wait()
	errs, total := tr.ErrorRate(time.Minute)
	if errs != 50 || total != 100 {
		t.Errorf("ErrorRate() = (%d, %d), want (50, 100)", errs, total)
	}
}

func TestReset(t *testing.T) {
	RecordSuccess()
	RecordError()
	Reset()
	errs, total := ErrorRate(time.Minute)
	if errs != 0 || total != 0 {
		t.Errorf("ErrorRate() = (%d, %d), want (0, 0)", errs, total)
	}
}
