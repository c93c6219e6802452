package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

func TestCalculateKpis_BasicPercentages(t *testing.T) {
	start := time.Date(2026, 3, 15, 7, 30, 0, 0, time.UTC)
	end := start.Add(12 * time.Hour)

	kpis := pipeline.CalculateKpis(start, end, 6*3600, 3*3600, 50, 1800, nil)

	assert.InDelta(t, 50.0, kpis.KipPct, 0.01)
	assert.InDelta(t, 50.0, kpis.MovementPct, 0.01)
	assert.Equal(t, 30, kpis.OnsiteMin)
	assert.Equal(t, 0, kpis.TripsCount)
}

func TestCalculateKpis_ClampsAt100(t *testing.T) {
	start := time.Date(2026, 3, 15, 7, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	kpis := pipeline.CalculateKpis(start, end, 5*3600, 10*3600, 0, 0, nil)

	assert.Equal(t, 100.0, kpis.KipPct)
	assert.Equal(t, 100.0, kpis.MovementPct)
}

func TestCalculateKpis_ZeroEngineTimeYieldsZeroMovement(t *testing.T) {
	start := time.Date(2026, 3, 15, 7, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	kpis := pipeline.CalculateKpis(start, end, 0, 0, 0, 0, nil)
	assert.Equal(t, 0.0, kpis.MovementPct)
}

func TestCalculateKpis_SumsTripVolumes(t *testing.T) {
	start := time.Date(2026, 3, 15, 7, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	trips := []pipeline.Trip{{VolumeM3: 5.5}, {VolumeM3: 2.5}}
	kpis := pipeline.CalculateKpis(start, end, 1, 1, 0, 0, trips)

	assert.Equal(t, 8.0, kpis.FactVolumeM3)
	assert.Equal(t, 2, kpis.TripsCount)
}
