// Package orchestrator wires the pipeline stages into the single top-level
// run the scheduler and CLI both trigger: fetch, parse, analyze, and persist
// one (date, shiftType) unit of work.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fleetops/dt-ingest/internal/clock"
	"github.com/fleetops/dt-ingest/internal/pipeline"
)

const (
	routeListLookbackDays     = 7
	requestLookbackMonths     = 2
	defaultVehicleConcurrency = 4
)

// GeofenceStore is the subset of persistence.GeofenceRepository the
// orchestrator needs.
type GeofenceStore interface {
	LoadZones(ctx context.Context) ([]pipeline.Zone, error)
}

// RouteListStore caches fetched route lists.
type RouteListStore interface {
	Upsert(ctx context.Context, rl pipeline.RouteList, syncedAt time.Time) error
}

// ShiftRecordStore persists a single vehicle's shift result transactionally.
type ShiftRecordStore interface {
	Save(ctx context.Context, rec pipeline.ShiftRecord) error
}

// RequestStore caches fetched requests.
type RequestStore interface {
	UpsertAll(ctx context.Context, requests []pipeline.Request) error
}

// Summary reports the outcome of one orchestrator run.
type Summary struct {
	Date           time.Time
	ShiftType      pipeline.ShiftType
	ProcessedCount int
	SkippedCount   int
	Errors         []string
}

// Orchestrator runs the end-to-end per-shift ingestion pipeline, grounded on
// the teacher's daemon main-wiring function generalized from one sequential
// setup path into a fetch/parse/analyze/persist pipeline with a bounded
// per-vehicle fan-out.
type Orchestrator struct {
	Fleet          pipeline.FleetClient
	Zones          GeofenceStore
	RouteLists     RouteListStore
	Requests       RequestStore
	ShiftRecords   ShiftRecordStore
	Parser         *pipeline.RouteListParser
	TripBuilder    *pipeline.TripBuilder
	TestVehicleIDs []int
	Concurrency    int
	Logger         *log.Logger
	Clock          clock.Clock
}

// Run executes the full pipeline for one (date, shiftType) unit.
func (o *Orchestrator) Run(ctx context.Context, date time.Time, shiftType pipeline.ShiftType) Summary {
	summary := Summary{Date: date, ShiftType: shiftType}
	logger := o.logger()

	window := pipeline.CanonicalWindow(date, shiftType)

	rawLists, err := o.Fleet.ListRouteLists(ctx, date.AddDate(0, 0, -routeListLookbackDays), date)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("fetch route lists: %v", err))
		return summary
	}
	o.cacheRouteLists(ctx, rawLists, logger)

	parsed := o.Parser.Parse(rawLists)
	parsed = filterByShiftType(parsed, shiftType)

	requests, err := o.Fleet.ListRequests(ctx, date.AddDate(0, -requestLookbackMonths, 0), date)
	if err != nil {
		logger.Printf("fetch requests: %v (continuing)", err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("fetch requests (warning): %v", err))
	} else if err := o.Requests.UpsertAll(ctx, requests); err != nil {
		logger.Printf("upsert requests: %v (continuing)", err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("upsert requests (warning): %v", err))
	}

	zones, err := o.Zones.LoadZones(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("load zones: %v", err))
		return summary
	}
	if len(zones) == 0 {
		summary.Errors = append(summary.Errors, "no zones configured; nothing to do")
		return summary
	}

	vehicles := o.buildVehicleSet(parsed)

	concurrency := o.Concurrency
	if concurrency <= 0 {
		concurrency = defaultVehicleConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]vehicleProcessResult, len(vehicles))
	for i, v := range vehicles {
		i, v := i, v
		g.Go(func() error {
			results[i] = o.processVehicle(gctx, v, window, date, shiftType, zones)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.err != "" {
			summary.Errors = append(summary.Errors, r.err)
		}
		if r.processed {
			summary.ProcessedCount++
		}
		if r.skipped {
			summary.SkippedCount++
		}
	}

	return summary
}

type vehicleProcessResult struct {
	processed bool
	skipped   bool
	err       string
}

// processVehicle runs steps 7a-7g for one vehicle. A failure at any step
// rolls that vehicle back (the transactional Save either commits fully or
// not at all) and is reported as a skip, never aborting the run.
func (o *Orchestrator) processVehicle(ctx context.Context, v pipeline.RouteListVehicle, window pipeline.ShiftWindow, date time.Time, shiftType pipeline.ShiftType, zones []pipeline.Zone) vehicleProcessResult {
	mon, err := o.Fleet.FetchMonitoring(ctx, v.VehicleID, window.Start, window.End)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoData) {
			return vehicleProcessResult{skipped: true}
		}
		return vehicleProcessResult{skipped: true, err: fmt.Sprintf("vehicle %d: fetch monitoring: %v", v.VehicleID, err)}
	}

	events := pipeline.AnalyzeTrack(mon.Track, zones)
	objectUID, detected := pipeline.DetectObject(mon.Track, zones)
	if !detected && len(events) == 0 {
		return vehicleProcessResult{skipped: true}
	}
	if !detected {
		objectUID = "unknown"
	}

	filteredZones, filteredEvents := filterByObject(zones, events, objectUID)
	trips := o.tripBuilder().Build(filteredEvents)
	onsiteSec := pipeline.OnsiteSec(filteredEvents, objectUID)
	workType := pipeline.ClassifyWorkType(mon.EngineTimeSec, onsiteSec, trips)
	kpis := pipeline.CalculateKpis(window.Start, window.End, mon.EngineTimeSec, mon.MovingTimeSec, mon.DistanceKm, onsiteSec, trips)

	objectName := ""
	for _, z := range filteredZones {
		if z.ObjectUID == objectUID {
			objectName = z.Name
			break
		}
	}

	rec := pipeline.ShiftRecord{
		ReportDate:    reportDateOnly(date),
		ShiftType:     shiftType,
		VehicleID:     v.VehicleID,
		ObjectUID:     objectUID,
		VehicleName:   v.Name,
		ObjectName:    objectName,
		EngineTimeSec: mon.EngineTimeSec,
		MovingTimeSec: mon.MovingTimeSec,
		DistanceKm:    mon.DistanceKm,
		OnsiteMin:     kpis.OnsiteMin,
		TripsCount:    kpis.TripsCount,
		FactVolumeM3:  kpis.FactVolumeM3,
		KipPct:        kpis.KipPct,
		MovementPct:   kpis.MovementPct,
		WorkType:      workType,
		RawMonitoring: mon.Raw,
		Trips:         trips,
		ZoneEvents:    filteredEvents,
	}

	if err := o.ShiftRecords.Save(ctx, rec); err != nil {
		return vehicleProcessResult{skipped: true, err: fmt.Sprintf("vehicle %d: persist: %v", v.VehicleID, err)}
	}

	return vehicleProcessResult{processed: true}
}

func filterByObject(zones []pipeline.Zone, events []pipeline.ZoneEvent, objectUID string) ([]pipeline.Zone, []pipeline.ZoneEvent) {
	var fz []pipeline.Zone
	for _, z := range zones {
		if z.ObjectUID == objectUID {
			fz = append(fz, z)
		}
	}
	var fe []pipeline.ZoneEvent
	for _, e := range events {
		if e.ObjectUID == objectUID {
			fe = append(fe, e)
		}
	}
	return fz, fe
}

// buildVehicleSet implements step 6: test mode seeds from configured ids and
// enriches names from any matching route-list vehicle; normal mode unions
// every target vehicle across the (already shift-filtered) route lists.
func (o *Orchestrator) buildVehicleSet(parsed []pipeline.ParsedRouteList) []pipeline.RouteListVehicle {
	if len(o.TestVehicleIDs) > 0 {
		return o.buildTestVehicleSet(parsed)
	}

	seen := make(map[int]struct{})
	var out []pipeline.RouteListVehicle
	for _, pl := range parsed {
		for _, v := range pl.Vehicles {
			if _, ok := seen[v.VehicleID]; ok {
				continue
			}
			seen[v.VehicleID] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func (o *Orchestrator) buildTestVehicleSet(parsed []pipeline.ParsedRouteList) []pipeline.RouteListVehicle {
	index := make(map[int]int, len(o.TestVehicleIDs))
	out := make([]pipeline.RouteListVehicle, 0, len(o.TestVehicleIDs))
	for _, id := range o.TestVehicleIDs {
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(out)
		out = append(out, pipeline.RouteListVehicle{VehicleID: id})
	}

	for _, pl := range parsed {
		for _, v := range pl.Vehicles {
			if i, ok := index[v.VehicleID]; ok {
				out[i] = v
			}
		}
	}
	return out
}

func (o *Orchestrator) tripBuilder() *pipeline.TripBuilder {
	if o.TripBuilder != nil {
		return o.TripBuilder
	}
	return pipeline.NewTripBuilder()
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

func (o *Orchestrator) clockNow() time.Time {
	if o.Clock != nil {
		return o.Clock.Now()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) cacheRouteLists(ctx context.Context, lists []pipeline.RouteList, logger *log.Logger) {
	if o.RouteLists == nil {
		return
	}
	now := o.clockNow()
	for _, rl := range lists {
		if err := o.RouteLists.Upsert(ctx, rl, now); err != nil {
			logger.Printf("cache route list %d: %v", rl.PlID, err)
		}
	}
}

// filterByShiftType drops route lists whose shift split never touches
// shiftType (step 3's "discard any route list whose period does not
// intersect a window of the target shiftType" for non-test mode; harmless
// to apply unconditionally since test mode seeds its vehicle set separately).
func filterByShiftType(parsed []pipeline.ParsedRouteList, shiftType pipeline.ShiftType) []pipeline.ParsedRouteList {
	var out []pipeline.ParsedRouteList
	for _, pl := range parsed {
		for _, w := range pl.Shifts {
			if w.Type == shiftType {
				out = append(out, pl)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].List.PlID < out[j].List.PlID })
	return out
}

func reportDateOnly(t time.Time) time.Time {
	local := t.In(pipeline.OperationalTimezone)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, pipeline.OperationalTimezone).UTC()
}
