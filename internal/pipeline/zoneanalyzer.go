package pipeline

import (
	"sort"
	"time"
)

// AnalyzeTrack sweeps track once per zone, emitting ZoneEvents per §4.8.
// Events are returned sorted by EnteredAt ascending across all zones.
func AnalyzeTrack(track []TrackPoint, zones []Zone) []ZoneEvent {
	var events []ZoneEvent
	for _, z := range zones {
		events = append(events, analyzeZone(track, z)...)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].EnteredAt.Before(events[j].EnteredAt)
	})
	return events
}

func analyzeZone(track []TrackPoint, z Zone) []ZoneEvent {
	var events []ZoneEvent
	var insideFrom time.Time
	insideSet := false

	for i, pt := range track {
		inside := zoneContains(z, pt.Lon, pt.Lat)

		switch {
		case inside && !insideSet:
			insideFrom = pt.At
			insideSet = true
		case !inside && insideSet:
			events = append(events, newZoneEvent(z, insideFrom, pt.At))
			insideSet = false
		}

		if i == len(track)-1 && insideSet {
			events = append(events, newZoneEvent(z, insideFrom, pt.At))
			insideSet = false
		}
	}

	return events
}

func newZoneEvent(z Zone, enteredAt, exitedAt time.Time) ZoneEvent {
	exited := exitedAt
	dur := int(exited.Sub(enteredAt).Seconds())
	if dur < 0 {
		dur = 0
	}
	return ZoneEvent{
		ZoneUID:     z.ZoneUID,
		ZoneTag:     z.Tag,
		ObjectUID:   z.ObjectUID,
		EnteredAt:   enteredAt,
		ExitedAt:    &exited,
		DurationSec: &dur,
	}
}

// OnsiteSec sums the duration of boundary-tagged events for objectUid.
func OnsiteSec(events []ZoneEvent, objectUID string) int {
	total := 0
	for _, e := range events {
		if e.ZoneTag == TagBoundary && e.ObjectUID == objectUID && e.DurationSec != nil {
			total += *e.DurationSec
		}
	}
	return total
}
