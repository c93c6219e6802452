package pipeline

import (
	"math"
	"time"
)

// CalculateKpis derives the KPI figures for one shift record, per §4.12.
func CalculateKpis(start, end time.Time, engineTimeSec, movingTimeSec int, distanceKm float64, onsiteSec int, trips []Trip) Kpis {
	shiftDurationSec := end.Sub(start).Seconds()
	if shiftDurationSec < 1 {
		shiftDurationSec = 1
	}

	kipPct := roundHalfUp2(clampPct(float64(engineTimeSec) / shiftDurationSec * 100))

	var movementPct float64
	if engineTimeSec > 0 {
		movementPct = roundHalfUp2(clampPct(float64(movingTimeSec) / float64(engineTimeSec) * 100))
	}

	var factVolume float64
	for _, t := range trips {
		factVolume += t.VolumeM3
	}

	return Kpis{
		KipPct:       kipPct,
		MovementPct:  movementPct,
		OnsiteMin:    int(math.Round(float64(onsiteSec) / 60)),
		FactVolumeM3: factVolume,
		TripsCount:   len(trips),
	}
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func roundHalfUp2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
