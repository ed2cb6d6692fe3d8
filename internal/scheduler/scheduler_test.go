package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSetScheduleRejectsBadExpressions(t *testing.T) {
	s := New(func(ctx context.Context) (int, error) { return 0, nil })
	defer s.Stop()

	for _, expr := range []string{"", "not a cron", "* * *", "61 * * * *"} {
		if err := s.SetSchedule(expr); err == nil {
			t.Errorf("SetSchedule(%q) accepted", expr)
		}
	}
	if err := s.SetSchedule("0 3 * * *"); err != nil {
		t.Errorf("valid schedule rejected: %v", err)
	}
	if got := s.Status().Schedule; got != "0 3 * * *" {
		t.Errorf("status schedule = %q", got)
	}
}

func TestTriggerSweep(t *testing.T) {
	var calls atomic.Int32
	s := New(func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 3, nil
	})
	s.Start()
	defer s.Stop()

	if err := s.TriggerSweep(); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		st := s.Status()
		return !st.Running && calls.Load() == 1
	})

	st := s.Status()
	if st.LastPurged != 3 {
		t.Errorf("LastPurged = %d, want 3", st.LastPurged)
	}
	if st.LastRun.IsZero() {
		t.Error("LastRun not recorded")
	}
	if st.LastError != "" {
		t.Errorf("LastError = %q", st.LastError)
	}
}

func TestTriggerSweepRejectsConcurrent(t *testing.T) {
	release := make(chan struct{})
	s := New(func(ctx context.Context) (int, error) {
		<-release
		return 0, nil
	})
	s.Start()

	if err := s.TriggerSweep(); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	if err := s.TriggerSweep(); err == nil {
		t.Error("concurrent trigger accepted")
	}

	close(release)
	s.Stop()
}

func TestSweepErrorRecorded(t *testing.T) {
	s := New(func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	s.Start()
	defer s.Stop()

	if err := s.TriggerSweep(); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		return s.Status().LastError == "boom"
	})
}

func TestStopIsIdempotentAndBlocksTrigger(t *testing.T) {
	s := New(func(ctx context.Context) (int, error) { return 0, nil })
	s.Start()
	s.Stop()
	s.Stop()

	if err := s.TriggerSweep(); err == nil {
		t.Error("trigger after stop accepted")
	}
}
