package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron"
)

// DefaultSchedule runs the scan every day at 09:00 (seconds-first cron).
const DefaultSchedule = "0 0 9 * * *"

// Runner executes one scan.
type Runner interface {
	RunScan(ctx context.Context) (Report, error)
}

// Scheduler triggers a Runner on a cron schedule until its context ends.
type Scheduler struct {
	schedule cron.Schedule
	runner   Runner
	clock    func() time.Time
	after    func(time.Duration) <-chan time.Time
	logf     func(string, ...any)
}

// NewScheduler parses expr, a six-field cron expression or a descriptor such
// as "@daily". An empty expr uses DefaultSchedule.
func NewScheduler(expr string, runner Runner) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("scan runner is required")
	}
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = DefaultSchedule
	}
	schedule, err := cron.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse scan schedule %q: %w", expr, err)
	}
	return &Scheduler{
		schedule: schedule,
		runner:   runner,
		clock:    time.Now,
		after:    time.After,
		logf:     log.Printf,
	}, nil
}

// SetLogger replaces the logger used for scan results.
func (s *Scheduler) SetLogger(logf func(string, ...any)) {
	if s == nil || logf == nil {
		return
	}
	s.logf = logf
}

// Next returns the first trigger strictly after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	return s.schedule.Next(now)
}

// Run waits for each trigger and runs one scan. Scan errors are logged and
// the loop keeps going. Run returns nil once ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("scheduler is not configured")
	}
	for {
		now := s.clock()
		next := s.Next(now)
		select {
		case <-ctx.Done():
			return nil
		case <-s.after(next.Sub(now)):
		}
		if ctx.Err() != nil {
			return nil
		}
		if _, err := s.runner.RunScan(ctx); err != nil {
			s.logf("unresponsive scan failed: %v", err)
		}
	}
}
