package pipeline

import "sort"

// Default TripBuilder thresholds per §4.10; callers needing different
// values construct a TripBuilder directly.
const (
	DefaultMinLoadingDwellSec   = 180
	DefaultMinUnloadingDwellSec = 180
	DefaultMaxTripDurationMin   = 240
)

// TripBuilder pairs loading events with unloading events into Trips.
type TripBuilder struct {
	MinLoadingDwellSec   int
	MinUnloadingDwellSec int
	MaxTripDurationMin   int
}

// NewTripBuilder constructs a TripBuilder with the default thresholds.
func NewTripBuilder() *TripBuilder {
	return &TripBuilder{
		MinLoadingDwellSec:   DefaultMinLoadingDwellSec,
		MinUnloadingDwellSec: DefaultMinUnloadingDwellSec,
		MaxTripDurationMin:   DefaultMaxTripDurationMin,
	}
}

// Build pairs loading/unloading events into Trips, per §4.10's greedy
// earliest-available matching.
func (b *TripBuilder) Build(events []ZoneEvent) []Trip {
	loads := filterDwell(events, TagLoading, b.MinLoadingDwellSec)
	unloads := filterDwell(events, TagUnloading, b.MinUnloadingDwellSec)

	sort.Slice(loads, func(i, j int) bool {
		return loads[i].ExitedAt.Before(*loads[j].ExitedAt)
	})

	usedU := make(map[int]struct{}, len(unloads))
	var trips []Trip
	tripNumber := 1

	for _, load := range loads {
		idx, u, found := firstAvailableUnload(unloads, usedU, load, b.MaxTripDurationMin)
		if !found {
			continue
		}
		usedU[idx] = struct{}{}

		trip := Trip{
			TripNumber:   tripNumber,
			LoadedAt:     load.EnteredAt,
			UnloadedAt:   *u.ExitedAt,
			LoadZoneName: load.ZoneUID,
			DumpZoneName: u.ZoneUID,
		}
		if u.ExitedAt != nil {
			minutes := int(u.ExitedAt.Sub(load.EnteredAt).Minutes() + 0.5)
			trip.DurationMin = &minutes
		}
		trips = append(trips, trip)
		tripNumber++
	}

	return trips
}

func filterDwell(events []ZoneEvent, tag ZoneTag, minDwellSec int) []ZoneEvent {
	var out []ZoneEvent
	for _, e := range events {
		if e.ZoneTag != tag {
			continue
		}
		if e.DurationSec == nil || *e.DurationSec < minDwellSec {
			continue
		}
		if e.ExitedAt == nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

func firstAvailableUnload(unloads []ZoneEvent, usedU map[int]struct{}, load ZoneEvent, maxTripDurationMin int) (int, ZoneEvent, bool) {
	for i, u := range unloads {
		if _, used := usedU[i]; used {
			continue
		}
		if !u.EnteredAt.After(*load.ExitedAt) {
			continue
		}
		if u.ExitedAt != nil {
			durationMin := u.ExitedAt.Sub(load.EnteredAt).Minutes()
			if durationMin > float64(maxTripDurationMin) {
				continue
			}
		}
		return i, u, true
	}
	return 0, ZoneEvent{}, false
}
