package steps

import (
	"context"
	"fmt"
	"log"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/cucumber/godog"

	"github.com/fleetops/dt-ingest/internal/clock"
	"github.com/fleetops/dt-ingest/internal/orchestrator"
	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// fakeFleetClient backs scenario S6: a configurable FleetClient double that
// always reports no monitoring data for the one vehicle under test.
type fakeFleetClient struct {
	vehicleID int
}

func (f *fakeFleetClient) ListRouteLists(ctx context.Context, from, to time.Time) ([]pipeline.RouteList, error) {
	return nil, nil
}

func (f *fakeFleetClient) ListRequests(ctx context.Context, from, to time.Time) ([]pipeline.Request, error) {
	return nil, nil
}

func (f *fakeFleetClient) FetchMonitoring(ctx context.Context, vehicleID int, from, to time.Time) (pipeline.Monitoring, error) {
	return pipeline.Monitoring{}, pipeline.ErrNoData
}

type fakeZoneStore struct{ zones []pipeline.Zone }

func (f *fakeZoneStore) LoadZones(ctx context.Context) ([]pipeline.Zone, error) { return f.zones, nil }

type noopRouteListStore struct{}

func (noopRouteListStore) Upsert(ctx context.Context, rl pipeline.RouteList, syncedAt time.Time) error {
	return nil
}

type noopRequestStore struct{}

func (noopRequestStore) UpsertAll(ctx context.Context, requests []pipeline.Request) error { return nil }

type noopShiftRecordStore struct{}

func (noopShiftRecordStore) Save(ctx context.Context, rec pipeline.ShiftRecord) error { return nil }

type orchestratorContext struct {
	vehicleID int
	summary   orchestrator.Summary
}

func (oc *orchestratorContext) reset() {
	oc.vehicleID = 0
	oc.summary = orchestrator.Summary{}
}

func (oc *orchestratorContext) aFleetWithNoMonitoringDataForVehicle(vehicleID int) error {
	oc.vehicleID = vehicleID
	return nil
}

func (oc *orchestratorContext) theOrchestratorRunsForThatShift() error {
	orch := &orchestrator.Orchestrator{
		Fleet:          &fakeFleetClient{vehicleID: oc.vehicleID},
		Zones:          &fakeZoneStore{zones: []pipeline.Zone{{ZoneUID: "O1", Tag: pipeline.TagBoundary, ObjectUID: "OBJ1"}}},
		RouteLists:     noopRouteListStore{},
		Requests:       noopRequestStore{},
		ShiftRecords:   noopShiftRecordStore{},
		Parser:         pipeline.NewRouteListParser([]int{oc.vehicleID}),
		TripBuilder:    pipeline.NewTripBuilder(),
		TestVehicleIDs: []int{oc.vehicleID},
		Logger:         log.New(io.Discard, "", 0),
		Clock:          clock.New(),
	}
	oc.summary = orch.Run(context.Background(), baseDay, pipeline.Shift1)
	return nil
}

func (oc *orchestratorContext) theRunShouldSkipVehiclesAndProcess(skipped, processed int) error {
	if oc.summary.SkippedCount != skipped {
		return fmt.Errorf("expected %d skipped, got %d", skipped, oc.summary.SkippedCount)
	}
	if oc.summary.ProcessedCount != processed {
		return fmt.Errorf("expected %d processed, got %d", processed, oc.summary.ProcessedCount)
	}
	return nil
}

// fleetRetryContext backs scenario S7: a real RetryingFleetClient talking to
// an httptest server that returns 429 twice before succeeding, with a mock
// clock recording the backoff durations instead of sleeping for real.
type fleetRetryContext struct {
	server    *httptest.Server
	callCount int
	mockClock *clock.Mock
	callErr   error
}

func (fc *fleetRetryContext) reset() {
	if fc.server != nil {
		fc.server.Close()
	}
	fc.server = nil
	fc.callCount = 0
	fc.mockClock = nil
	fc.callErr = nil
}

func (fc *fleetRetryContext) aFleetEndpointThatReturnsTwiceThen200(status int) error {
	fc.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fc.callCount++
		if fc.callCount <= 2 {
			w.WriteHeader(status)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"list":[]}`))
	}))
	return nil
}

func (fc *fleetRetryContext) theFleetClientFetchesRouteLists() error {
	fc.mockClock = clock.NewMock(baseDay)
	tokens, err := pipeline.NewTokenPool([]string{"tok"})
	if err != nil {
		return err
	}
	limiter := pipeline.NewPerVehicleRateLimiter(0, fc.mockClock)
	client := pipeline.NewRetryingFleetClient(fc.server.URL, tokens, limiter, fc.mockClock)

	_, err = client.ListRouteLists(context.Background(), baseDay.AddDate(0, 0, -7), baseDay)
	fc.callErr = err
	return nil
}

func (fc *fleetRetryContext) theCallShouldSucceedAfterRetries(retries int) error {
	if fc.callErr != nil {
		return fmt.Errorf("expected success, got error: %v", fc.callErr)
	}
	if fc.callCount != retries+1 {
		return fmt.Errorf("expected %d total attempts, got %d", retries+1, fc.callCount)
	}
	return nil
}

func (fc *fleetRetryContext) theClientShouldHaveWaitedThen(first, second string) error {
	want := []string{first, second}
	if len(fc.mockClock.SleptDurations()) != len(want) {
		return fmt.Errorf("expected %d sleeps, got %d", len(want), len(fc.mockClock.SleptDurations()))
	}
	for i, w := range want {
		d, err := time.ParseDuration(w)
		if err != nil {
			return err
		}
		if fc.mockClock.SleptDurations()[i] != d {
			return fmt.Errorf("sleep %d: expected %s, got %s", i+1, d, fc.mockClock.SleptDurations()[i])
		}
	}
	return nil
}

// InitializeOrchestratorAndFleetScenario registers the no-monitoring-data
// (S6) and rate-limit-retry (S7) step definitions.
func InitializeOrchestratorAndFleetScenario(sc *godog.ScenarioContext) {
	oc := &orchestratorContext{}
	fc := &fleetRetryContext{}

	sc.Before(func(ctxArg interface{}, _ *godog.Scenario) (interface{}, error) {
		oc.reset()
		fc.reset()
		return ctxArg, nil
	})

	sc.Step(`^a fleet with no monitoring data for vehicle (\d+)$`, oc.aFleetWithNoMonitoringDataForVehicle)
	sc.Step(`^the orchestrator runs for that shift$`, oc.theOrchestratorRunsForThatShift)
	sc.Step(`^the run should skip (\d+) vehicles? and process (\d+)$`, oc.theRunShouldSkipVehiclesAndProcess)

	sc.Step(`^a fleet endpoint that returns (\d+) twice then 200$`, fc.aFleetEndpointThatReturnsTwiceThen200)
	sc.Step(`^the fleet client fetches route lists$`, fc.theFleetClientFetchesRouteLists)
	sc.Step(`^the call should succeed after (\d+) retries$`, fc.theCallShouldSucceedAfterRetries)
	sc.Step(`^the client should have waited (\S+) then (\S+)$`, fc.theClientShouldHaveWaitedThen)
}
