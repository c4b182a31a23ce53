package monitor

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingRunner struct {
	calls  int
	err    error
	cancel context.CancelFunc
	stopAt int
}

func (r *countingRunner) RunScan(context.Context) (Report, error) {
	r.calls++
	if r.calls >= r.stopAt {
		r.cancel()
	}
	return Report{}, r.err
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()
	if _, err := NewScheduler("not a cron", &countingRunner{}); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := NewScheduler("", nil); err == nil {
		t.Fatal("expected error for nil runner")
	}
}

func TestSchedulerNextUsesDefaultSchedule(t *testing.T) {
	t.Parallel()
	scheduler, err := NewScheduler("", &countingRunner{})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	want := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	if got := scheduler.Next(now); !got.Equal(want) {
		t.Fatalf("next = %v, want %v", got, want)
	}
	early := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	if got := scheduler.Next(early); !got.Equal(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("next = %v, want same-day trigger", got)
	}
}

func TestSchedulerRunScansOnEachTrigger(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &countingRunner{cancel: cancel, stopAt: 2, err: errors.New("store offline")}

	scheduler, err := NewScheduler("@every 1h", runner)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	var waits []time.Duration
	var logs []string
	scheduler.clock = func() time.Time { return time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC) }
	scheduler.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		fired := make(chan time.Time, 1)
		fired <- time.Time{}
		return fired
	}
	scheduler.SetLogger(func(format string, args ...any) {
		logs = append(logs, format)
	})

	if err := scheduler.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if runner.calls != 2 {
		t.Fatalf("scans = %d, want 2", runner.calls)
	}
	if len(logs) != 2 {
		t.Fatalf("logged failures = %d, want 2", len(logs))
	}
	if waits[0] != time.Hour {
		t.Fatalf("wait = %v, want 1h", waits[0])
	}
}

func TestSchedulerRunStopsWhenContextDone(t *testing.T) {
	t.Parallel()
	scheduler, err := NewScheduler("", &countingRunner{})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := scheduler.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}
