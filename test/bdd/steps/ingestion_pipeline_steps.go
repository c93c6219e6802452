package steps

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// baseDay anchors every "HH:MM[:SS]" table cell to the same calendar day so
// dwell/duration arithmetic between cells is straightforward.
var baseDay = time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

type pipelineContext struct {
	zones  map[string]pipeline.Zone
	track  []pipeline.TrackPoint
	events []pipeline.ZoneEvent
	trips  []pipeline.Trip
	kpis   pipeline.Kpis
	work   pipeline.WorkType
	onsiteSec int

	detectedObject string
	detectedOK     bool
}

func (pc *pipelineContext) reset() {
	pc.zones = make(map[string]pipeline.Zone)
	pc.track = nil
	pc.events = nil
	pc.trips = nil
	pc.kpis = pipeline.Kpis{}
	pc.work = ""
	pc.onsiteSec = 0
	pc.detectedObject = ""
	pc.detectedOK = false
}

// zoneCenter gives each zone uid its own non-overlapping 2x2-degree square,
// laid out on a grid so "none" (far outside every square) and any named
// zone are trivially distinguishable by coordinate alone. A boundary zone
// additionally covers the squares of its object's other zones (see
// theFollowingZones), so a point in a loading/unloading zone is also inside
// the object's boundary.
func zoneCenter(uid string) (lon, lat float64) {
	idx := 0
	for i, c := range uid {
		idx += int(c) << (i % 4)
	}
	return float64(10 * (idx%37 + 1)), float64(10 * ((idx/37)%37 + 1))
}

func square(lon, lat, half float64) pipeline.Polygon {
	return pipeline.Polygon{Rings: [][][2]float64{{
		{lon - half, lat - half},
		{lon + half, lat - half},
		{lon + half, lat + half},
		{lon - half, lat + half},
	}}}
}

func parseClock(s string) time.Time {
	parts := strings.Split(s, ":")
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	sec := 0
	if len(parts) > 2 {
		sec, _ = strconv.Atoi(parts[2])
	}
	return baseDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second)
}

func (pc *pipelineContext) theFollowingZones(table *godog.Table) error {
	for i := 1; i < len(table.Rows); i++ {
		row := table.Rows[i]
		uid := row.Cells[0].Value
		tag := pipeline.ZoneTag(row.Cells[1].Value)
		object := row.Cells[2].Value
		lon, lat := zoneCenter(uid)
		pc.zones[uid] = pipeline.Zone{
			ZoneUID:   uid,
			Name:      uid,
			ObjectUID: object,
			Tag:       tag,
			Polygons:  []pipeline.Polygon{square(lon, lat, 1)},
		}
	}
	for uid, b := range pc.zones {
		if b.Tag != pipeline.TagBoundary {
			continue
		}
		for _, z := range pc.zones {
			if z.ObjectUID == b.ObjectUID && z.Tag != pipeline.TagBoundary {
				lon, lat := zoneCenter(z.ZoneUID)
				b.Polygons = append(b.Polygons, square(lon, lat, 1))
			}
		}
		pc.zones[uid] = b
	}
	return nil
}

func (pc *pipelineContext) theFollowingTrack(table *godog.Table) error {
	for i := 1; i < len(table.Rows); i++ {
		row := table.Rows[i]
		at := parseClock(row.Cells[0].Value)
		zoneUID := row.Cells[1].Value
		var lon, lat float64
		if zoneUID == "none" {
			lon, lat = -1000, -1000
		} else {
			z, ok := pc.zones[zoneUID]
			if !ok {
				return fmt.Errorf("unknown zone %q in track table", zoneUID)
			}
			lon, lat = zoneCenter(z.ZoneUID)
		}
		pc.track = append(pc.track, pipeline.TrackPoint{Lon: lon, Lat: lat, At: at})
	}
	return nil
}

func (pc *pipelineContext) theShiftWindowIsWithEngineTimeAndMovingTime(startStr, endStr string, engineSec, movingSec int) error {
	start := parseClock(startStr)
	end := parseClock(endStr)

	var zones []pipeline.Zone
	for _, z := range pc.zones {
		zones = append(zones, z)
	}

	pc.events = pipeline.AnalyzeTrack(pc.track, zones)
	objectUID, detected := pipeline.DetectObject(pc.track, zones)
	if !detected {
		objectUID = "unknown"
	}

	filteredEvents := filterEventsByObject(pc.events, objectUID)
	pc.trips = pipeline.NewTripBuilder().Build(filteredEvents)
	pc.onsiteSec = pipeline.OnsiteSec(filteredEvents, objectUID)
	pc.work = pipeline.ClassifyWorkType(engineSec, pc.onsiteSec, pc.trips)
	pc.kpis = pipeline.CalculateKpis(start, end, engineSec, movingSec, 0, pc.onsiteSec, pc.trips)
	return nil
}

func filterEventsByObject(events []pipeline.ZoneEvent, objectUID string) []pipeline.ZoneEvent {
	var out []pipeline.ZoneEvent
	for _, e := range events {
		if e.ObjectUID == objectUID {
			out = append(out, e)
		}
	}
	return out
}

// theTrackIsAnalyzedAndReducedToKpis covers scenarios that only supply zones
// and a track (no explicit shift window), defaulting to the canonical
// shift1 window so onsite-only assertions (S5) don't need the full table.
func (pc *pipelineContext) theTrackIsAnalyzedAndReducedToKpis() error {
	if pc.kpis != (pipeline.Kpis{}) || len(pc.trips) > 0 || pc.onsiteSec > 0 {
		return nil // already computed by the explicit-window step
	}
	return pc.theShiftWindowIsWithEngineTimeAndMovingTime("07:30", "19:30", 0, 0)
}

func (pc *pipelineContext) theVehicleEntersAtAndTheTrackEndsAtStillInside(zoneUID, enterStr, endStr string) error {
	z, ok := pc.zones[zoneUID]
	if !ok {
		return fmt.Errorf("unknown zone %q", zoneUID)
	}
	lon, lat := zoneCenter(z.ZoneUID)
	pc.track = []pipeline.TrackPoint{
		{Lon: lon, Lat: lat, At: parseClock(enterStr)},
		{Lon: lon, Lat: lat, At: parseClock(endStr)},
	}
	return nil
}

func (pc *pipelineContext) theFollowingBoundaryVisitCounts(table *godog.Table) error {
	pc.track = nil
	for i := 1; i < len(table.Rows); i++ {
		row := table.Rows[i]
		object := row.Cells[0].Value
		count, _ := strconv.Atoi(row.Cells[1].Value)

		var lon, lat float64
		for _, z := range pc.zones {
			if z.ObjectUID == object && z.Tag == pipeline.TagBoundary {
				lon, lat = zoneCenter(z.ZoneUID)
				break
			}
		}
		for n := 0; n < count; n++ {
			pc.track = append(pc.track, pipeline.TrackPoint{
				Lon: lon, Lat: lat,
				At: baseDay.Add(time.Duration(len(pc.track)) * time.Minute),
			})
		}
	}
	return nil
}

func (pc *pipelineContext) theObjectIsDetected() error {
	var zones []pipeline.Zone
	for _, z := range pc.zones {
		zones = append(zones, z)
	}
	pc.detectedObject, pc.detectedOK = pipeline.DetectObject(pc.track, zones)
	return nil
}

func (pc *pipelineContext) theDetectedObjectShouldBe(want string) error {
	if !pc.detectedOK {
		return fmt.Errorf("no object detected")
	}
	if pc.detectedObject != want {
		return fmt.Errorf("expected detected object %q, got %q", want, pc.detectedObject)
	}
	return nil
}

func (pc *pipelineContext) thereShouldBeTrip(n int) error {
	if len(pc.trips) != n {
		return fmt.Errorf("expected %d trips, got %d", n, len(pc.trips))
	}
	return nil
}

func (pc *pipelineContext) tripShouldLastMinutes(n, minutes int) error {
	if n < 1 || n > len(pc.trips) {
		return fmt.Errorf("no trip #%d", n)
	}
	trip := pc.trips[n-1]
	if trip.DurationMin == nil || *trip.DurationMin != minutes {
		return fmt.Errorf("expected trip %d duration %d minutes, got %v", n, minutes, trip.DurationMin)
	}
	return nil
}

func (pc *pipelineContext) tripShouldUnloadAt(n int, zoneUID string) error {
	if n < 1 || n > len(pc.trips) {
		return fmt.Errorf("no trip #%d", n)
	}
	if pc.trips[n-1].DumpZoneName != zoneUID {
		return fmt.Errorf("expected trip %d to unload at %q, got %q", n, zoneUID, pc.trips[n-1].DumpZoneName)
	}
	return nil
}

func (pc *pipelineContext) theWorkTypeShouldBe(want string) error {
	if string(pc.work) != want {
		return fmt.Errorf("expected work type %q, got %q", want, pc.work)
	}
	return nil
}

func (pc *pipelineContext) kipPctShouldBe(want float64) error {
	if pc.kpis.KipPct != want {
		return fmt.Errorf("expected kipPct %.2f, got %.2f", want, pc.kpis.KipPct)
	}
	return nil
}

func (pc *pipelineContext) movementPctShouldBe(want float64) error {
	if pc.kpis.MovementPct != want {
		return fmt.Errorf("expected movementPct %.2f, got %.2f", want, pc.kpis.MovementPct)
	}
	return nil
}

func (pc *pipelineContext) onsiteMinutesShouldBeGreaterThanZero() error {
	if pc.kpis.OnsiteMin <= 0 {
		return fmt.Errorf("expected onsite minutes > 0, got %d", pc.kpis.OnsiteMin)
	}
	return nil
}

// InitializeIngestionPipelineScenario registers the zone/trip/KPI step
// definitions covering end-to-end scenarios S1-S5.
func InitializeIngestionPipelineScenario(sc *godog.ScenarioContext) {
	pc := &pipelineContext{}

	sc.Before(func(ctxArg interface{}, _ *godog.Scenario) (interface{}, error) {
		pc.reset()
		return ctxArg, nil
	})

	sc.Step(`^the following zones:$`, pc.theFollowingZones)
	sc.Step(`^the following track:$`, pc.theFollowingTrack)
	sc.Step(`^the shift window is "([^"]*)" to "([^"]*)" with engine time (\d+)s and moving time (\d+)s$`, pc.theShiftWindowIsWithEngineTimeAndMovingTime)
	sc.Step(`^the track is analyzed and reduced to KPIs$`, pc.theTrackIsAnalyzedAndReducedToKpis)
	sc.Step(`^the vehicle enters "([^"]*)" at "([^"]*)" and the track ends at "([^"]*)" still inside$`, pc.theVehicleEntersAtAndTheTrackEndsAtStillInside)
	sc.Step(`^the following boundary visit counts:$`, pc.theFollowingBoundaryVisitCounts)
	sc.Step(`^the object is detected$`, pc.theObjectIsDetected)
	sc.Step(`^the detected object should be "([^"]*)"$`, pc.theDetectedObjectShouldBe)
	sc.Step(`^there should be (\d+) trips?$`, pc.thereShouldBeTrip)
	sc.Step(`^trip (\d+) should last (\d+) minutes$`, pc.tripShouldLastMinutes)
	sc.Step(`^trip (\d+) should unload at "([^"]*)"$`, pc.tripShouldUnloadAt)
	sc.Step(`^the work type should be "([^"]*)"$`, pc.theWorkTypeShouldBe)
	sc.Step(`^kipPct should be ([\d.]+)$`, func(s string) error {
		v, _ := strconv.ParseFloat(s, 64)
		return pc.kipPctShouldBe(v)
	})
	sc.Step(`^movementPct should be ([\d.]+)$`, func(s string) error {
		v, _ := strconv.ParseFloat(s, 64)
		return pc.movementPctShouldBe(v)
	})
	sc.Step(`^onsite minutes should be greater than 0$`, pc.onsiteMinutesShouldBeGreaterThanZero)
}
