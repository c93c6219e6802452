package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/dt-ingest/internal/clock"
	"github.com/fleetops/dt-ingest/internal/config"
	"github.com/fleetops/dt-ingest/internal/orchestrator"
	"github.com/fleetops/dt-ingest/internal/persistence"
	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// app bundles the wired components both `run` and `serve` need.
type app struct {
	cfg          *config.Config
	db           *gorm.DB
	orchestrator *orchestrator.Orchestrator
	shiftRecords *persistence.ShiftRecordRepository
	geofence     *persistence.GeofenceRepository
	requests     *persistence.RequestRepository
	logger       *log.Logger
}

// newApp loads configuration, opens the database and wires the orchestrator,
// following the teacher's single sequential setup function
// (cmd/spacetraders-daemon/main.go's run(cfg)) generalized to this domain.
func newApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := persistence.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger := log.New(os.Stdout, "dtctl: ", log.LstdFlags)

	tokens, err := pipeline.NewTokenPool(cfg.Fleet.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to build token pool: %w", err)
	}
	limiter := pipeline.NewPerVehicleRateLimiter(cfg.Fleet.MinCallInterval, clock.New())
	fleet := pipeline.NewRetryingFleetClient(cfg.Fleet.BaseURL, tokens, limiter, clock.New())

	geofence := persistence.NewGeofenceRepository(db)
	routeLists := persistence.NewRouteListRepository(db)
	requests := persistence.NewRequestRepository(db)
	shiftRecords := persistence.NewShiftRecordRepository(db)

	orch := &orchestrator.Orchestrator{
		Fleet:          fleet,
		Zones:          geofence,
		RouteLists:     routeLists,
		Requests:       requests,
		ShiftRecords:   shiftRecords,
		Parser:         pipeline.NewRouteListParser(cfg.Fleet.TestVehicleIDs),
		TripBuilder:    pipeline.NewTripBuilder(),
		TestVehicleIDs: cfg.Fleet.TestVehicleIDs,
		Concurrency:    cfg.Database.Pool.MaxOpen,
		Logger:         logger,
		Clock:          clock.New(),
	}

	return &app{
		cfg:          cfg,
		db:           db,
		orchestrator: orch,
		shiftRecords: shiftRecords,
		geofence:     geofence,
		requests:     requests,
		logger:       logger,
	}, nil
}

func (a *app) close() {
	_ = persistence.Close(a.db)
}

// runOnce invokes the orchestrator once and reports a non-nil error if the
// run itself failed outright (as opposed to per-vehicle skips, which are
// reported in the summary but don't fail the command).
func (a *app) runOnce(date time.Time, shiftType pipeline.ShiftType) error {
	return a.runWithContext(context.Background(), date, shiftType)
}

// runWithContext is runOnce with a caller-supplied context, so cancelling
// ctx cancels the orchestrator run in flight.
func (a *app) runWithContext(ctx context.Context, date time.Time, shiftType pipeline.ShiftType) error {
	summary := a.orchestrator.Run(ctx, date, shiftType)
	a.logger.Printf("run complete: date=%s shift=%s processed=%d skipped=%d",
		pipeline.FormatDateOnly(summary.Date), summary.ShiftType, summary.ProcessedCount, summary.SkippedCount)
	for _, e := range summary.Errors {
		a.logger.Printf("run error: %s", e)
	}
	if len(summary.Errors) > 0 && summary.ProcessedCount == 0 && summary.SkippedCount == 0 {
		return fmt.Errorf("run failed: %s", summary.Errors[0])
	}
	return nil
}

// orchestratorRunFunc returns an unnamed function value (assignable to both
// scheduler.RunFunc and httpapi.Runner) that logs a failed run instead of
// propagating it, since both the scheduler and the admin-fetch endpoint
// fire runs fire-and-forget.
func (a *app) orchestratorRunFunc() func(ctx context.Context, date time.Time, shiftType pipeline.ShiftType) {
	return func(ctx context.Context, date time.Time, shiftType pipeline.ShiftType) {
		if err := a.runWithContext(ctx, date, shiftType); err != nil {
			a.logger.Printf("scheduled run failed: %v", err)
		}
	}
}
