package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/fleetops/dt-ingest/internal/clock"
)

// PerVehicleRateLimiter enforces a minimum gap between calls keyed by
// vehicle id. Callers for different ids never block each other; callers for
// the same id serialize behind a per-id mutex so the recorded "last call"
// instant and the wait for it stay consistent under concurrent callers.
type PerVehicleRateLimiter struct {
	interval time.Duration
	clock    clock.Clock

	mu      sync.Mutex
	perID   map[int]*vehicleGate
}

type vehicleGate struct {
	mu   sync.Mutex
	last time.Time
	set  bool
}

// NewPerVehicleRateLimiter builds a limiter enforcing interval between
// successive Acquire calls for the same vehicle id.
func NewPerVehicleRateLimiter(interval time.Duration, c clock.Clock) *PerVehicleRateLimiter {
	if c == nil {
		c = clock.New()
	}
	return &PerVehicleRateLimiter{
		interval: interval,
		clock:    c,
		perID:    make(map[int]*vehicleGate),
	}
}

// Acquire blocks (cooperatively, honoring ctx cancellation) until at least
// interval has elapsed since the last recorded call for vehicleID, then
// records now as the new last-call instant.
func (l *PerVehicleRateLimiter) Acquire(ctx context.Context, vehicleID int) error {
	gate := l.gateFor(vehicleID)

	gate.mu.Lock()
	defer gate.mu.Unlock()

	if gate.set {
		elapsed := l.clock.Now().Sub(gate.last)
		if wait := l.interval - elapsed; wait > 0 {
			if err := l.sleepOrCancel(ctx, wait); err != nil {
				return err
			}
		}
	}

	gate.last = l.clock.Now()
	gate.set = true
	return nil
}

func (l *PerVehicleRateLimiter) gateFor(vehicleID int) *vehicleGate {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.perID[vehicleID]
	if !ok {
		g = &vehicleGate{}
		l.perID[vehicleID] = g
	}
	return g
}

func (l *PerVehicleRateLimiter) sleepOrCancel(ctx context.Context, d time.Duration) error {
	if _, isMock := l.clock.(*clock.Mock); isMock {
		l.clock.Sleep(d)
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
