// Package scheduler fires the orchestrator on two fixed daily local-time
// triggers, coalescing overlapping runs. No cron library exists anywhere in
// the retrieved corpus (robfig/cron, go-co-op/gocron checked, absent), so
// this follows the teacher's own compute-next-deadline/sleep/re-evaluate
// loop shape (internal/domain/daemon/health_monitor.go's cooldown check)
// generalized from "skip if within cooldown" to "skip if still running".
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/fleetops/dt-ingest/internal/clock"
	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// Trigger is one fixed daily firing: at TriggerAt local time, run the
// orchestrator for (today/yesterday, ShiftType) per RelativeDays.
type Trigger struct {
	TriggerAt    string // "HH:MM" in pipeline.OperationalTimezone
	ShiftType    pipeline.ShiftType
	RelativeDays int // 0 = today, -1 = yesterday
}

// RunFunc is the orchestrator entry point the scheduler calls.
type RunFunc func(ctx context.Context, date time.Time, shiftType pipeline.ShiftType)

// Scheduler fires each configured Trigger once per day, skipping a firing
// if the previous run triggered by this scheduler hasn't finished yet.
type Scheduler struct {
	triggers []Trigger
	run      RunFunc
	clock    clock.Clock
	logger   *log.Logger
	running  atomic.Bool
}

// New builds a scheduler that calls run for each trigger at its daily time.
func New(triggers []Trigger, run RunFunc, c clock.Clock, logger *log.Logger) *Scheduler {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{triggers: triggers, run: run, clock: c, logger: logger}
}

// Start blocks, firing triggers as their daily instants arrive, until ctx is
// canceled.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next, trigger, ok := s.nextFiring()
		if !ok {
			return
		}

		wait := next.Sub(s.clock.Now())
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			go s.fire(ctx, trigger)
		}
	}
}

// fire runs the trigger's orchestrator call unless a previous scheduler-run
// is still in flight, in which case this firing is coalesced away.
func (s *Scheduler) fire(ctx context.Context, trigger Trigger) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Printf("scheduler: skipping %s trigger, previous run still in progress", trigger.ShiftType)
		return
	}
	defer s.running.Store(false)

	date := reportDate(s.clock.Now(), trigger.RelativeDays)
	s.logger.Printf("scheduler: firing %s trigger for %s", trigger.ShiftType, pipeline.FormatDateOnly(date))
	s.run(ctx, date, trigger.ShiftType)
}

// nextFiring returns the soonest upcoming (instant, trigger) pair across all
// configured triggers.
func (s *Scheduler) nextFiring() (time.Time, Trigger, bool) {
	if len(s.triggers) == 0 {
		return time.Time{}, Trigger{}, false
	}

	now := s.clock.Now()
	var best time.Time
	var bestTrigger Trigger
	found := false

	for _, t := range s.triggers {
		at, err := nextInstant(now, t.TriggerAt)
		if err != nil {
			s.logger.Printf("scheduler: invalid trigger time %q: %v", t.TriggerAt, err)
			continue
		}
		if !found || at.Before(best) {
			best = at
			bestTrigger = t
			found = true
		}
	}
	return best, bestTrigger, found
}

// nextInstant computes the next occurrence of hh:mm (operational timezone)
// at or after now.
func nextInstant(now time.Time, hhmm string) (time.Time, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, fmt.Errorf("parse trigger time %q: %w", hhmm, err)
	}

	local := now.In(pipeline.OperationalTimezone)
	y, m, d := local.Date()
	candidate := time.Date(y, m, d, hour, minute, 0, 0, pipeline.OperationalTimezone)
	if candidate.Before(local) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate.UTC(), nil
}

func reportDate(now time.Time, relativeDays int) time.Time {
	local := now.In(pipeline.OperationalTimezone)
	y, m, d := local.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, pipeline.OperationalTimezone).AddDate(0, 0, relativeDays)
	return day.UTC()
}

// DefaultTriggers builds the two fixed daily triggers per the operational
// schedule: 08:30 runs yesterday's shift2, 20:30 runs today's shift1.
func DefaultTriggers(shift1At, shift2At string) []Trigger {
	return []Trigger{
		{TriggerAt: shift2At, ShiftType: pipeline.Shift2, RelativeDays: -1},
		{TriggerAt: shift1At, ShiftType: pipeline.Shift1, RelativeDays: 0},
	}
}
