// Package scheduler provides cron-based trash retention sweeps.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepFunc performs one retention sweep and returns how many records it
// purged.
type SweepFunc func(ctx context.Context) (int, error)

// Status describes the sweeper's current state.
type Status struct {
	Running    bool      `json:"running"`
	Schedule   string    `json:"schedule"`
	NextRun    time.Time `json:"next_run"`
	LastRun    time.Time `json:"last_run,omitempty"`
	LastPurged int       `json:"last_purged"`
	LastError  string    `json:"last_error,omitempty"`
}

// Sweeper runs a sweep function on a cron schedule.
type Sweeper struct {
	cron      *cron.Cron
	sweepFunc SweepFunc
	schedule  string
	logger    *slog.Logger

	mu         sync.Mutex
	entryID    cron.EntryID
	running    bool
	lastRun    time.Time
	lastPurged int
	lastErr    error

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// New creates a Sweeper with the given sweep callback.
func New(sweepFunc SweepFunc) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
		))),
		sweepFunc: sweepFunc,
		logger:    slog.Default(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// WithLogger sets the logger.
func (s *Sweeper) WithLogger(logger *slog.Logger) *Sweeper {
	s.logger = logger
	return s
}

// SetSchedule validates and installs the cron expression, replacing any
// previous schedule.
func (s *Sweeper) SetSchedule(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.mu.Lock()
		if s.stopped || s.running {
			s.mu.Unlock()
			return
		}
		s.running = true
		s.wg.Add(1)
		s.mu.Unlock()
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	s.entryID = entryID
	s.schedule = cronExpr
	s.logger.Info("scheduled trash retention sweep",
		"schedule", cronExpr,
		"next_run", s.cron.Entry(entryID).Next)
	return nil
}

// Start begins the cron loop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop halts the cron loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
}

// TriggerSweep runs a sweep immediately, outside the schedule. Returns an
// error if a sweep is already running.
func (s *Sweeper) TriggerSweep() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("sweeper is stopped")
	}
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("sweep already running")
	}
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runSweep()
	return nil
}

// Status returns a snapshot of sweeper state.
func (s *Sweeper) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:    s.running,
		Schedule:   s.schedule,
		LastRun:    s.lastRun,
		LastPurged: s.lastPurged,
	}
	if s.entryID != 0 {
		st.NextRun = s.cron.Entry(s.entryID).Next
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

func (s *Sweeper) runSweep() {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	purged, err := s.sweepFunc(s.ctx)

	s.mu.Lock()
	s.lastRun = start
	s.lastPurged = purged
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("retention sweep failed", "error", err)
		return
	}
	s.logger.Info("retention sweep complete",
		"purged", purged,
		"duration", time.Since(start))
}
