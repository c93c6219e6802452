package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

func zoneEvent(tag pipeline.ZoneTag, enteredAt time.Time, durationSec int, zoneUID string) pipeline.ZoneEvent {
	exit := enteredAt.Add(time.Duration(durationSec) * time.Second)
	return pipeline.ZoneEvent{
		ZoneUID:     zoneUID,
		ZoneTag:     tag,
		EnteredAt:   enteredAt,
		ExitedAt:    &exit,
		DurationSec: &durationSec,
	}
}

func TestTripBuilder_PairsEarliestAvailableUnload(t *testing.T) {
	base := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	builder := pipeline.NewTripBuilder()

	events := []pipeline.ZoneEvent{
		zoneEvent(pipeline.TagLoading, base, 200, "load1"),
		zoneEvent(pipeline.TagUnloading, base.Add(30*time.Minute), 200, "dump1"),
		zoneEvent(pipeline.TagUnloading, base.Add(time.Hour), 200, "dump2"),
	}

	trips := builder.Build(events)

	require.Len(t, trips, 1)
	assert.Equal(t, 1, trips[0].TripNumber)
	assert.Equal(t, "load1", trips[0].LoadZoneName)
	assert.Equal(t, "dump1", trips[0].DumpZoneName)
	require.NotNil(t, trips[0].DurationMin)
}

func TestTripBuilder_SkipsBelowDwellThreshold(t *testing.T) {
	base := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	builder := pipeline.NewTripBuilder()

	events := []pipeline.ZoneEvent{
		zoneEvent(pipeline.TagLoading, base, 60, "load1"),
		zoneEvent(pipeline.TagUnloading, base.Add(30*time.Minute), 200, "dump1"),
	}

	trips := builder.Build(events)
	assert.Empty(t, trips)
}

func TestTripBuilder_UnloadConsumedAtMostOnce(t *testing.T) {
	base := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	builder := pipeline.NewTripBuilder()

	events := []pipeline.ZoneEvent{
		zoneEvent(pipeline.TagLoading, base, 200, "load1"),
		zoneEvent(pipeline.TagLoading, base.Add(10*time.Minute), 200, "load2"),
		zoneEvent(pipeline.TagUnloading, base.Add(30*time.Minute), 200, "dump1"),
	}

	trips := builder.Build(events)
	require.Len(t, trips, 1)
	assert.Equal(t, "load1", trips[0].LoadZoneName)
}

func TestTripBuilder_ExceedsMaxDurationNotMatched(t *testing.T) {
	base := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	builder := pipeline.NewTripBuilder()

	events := []pipeline.ZoneEvent{
		zoneEvent(pipeline.TagLoading, base, 200, "load1"),
		zoneEvent(pipeline.TagUnloading, base.Add(5*time.Hour), 200, "dump1"),
	}

	trips := builder.Build(events)
	assert.Empty(t, trips)
}
