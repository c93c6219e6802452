package httpapi

import (
	"context"
	"time"

	"github.com/fleetops/dt-ingest/internal/persistence"
	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// ShiftRecordRepoAdapter adapts *persistence.ShiftRecordRepository to
// ShiftRecordsStore, keeping this package's interface free of a direct
// persistence/gorm dependency for testing.
type ShiftRecordRepoAdapter struct {
	Repo *persistence.ShiftRecordRepository
}

func (a ShiftRecordRepoAdapter) ListByFilter(ctx context.Context, f ShiftRecordFilter) ([]pipeline.ShiftRecord, error) {
	return a.Repo.ListByFilter(ctx, persistence.ShiftRecordFilter{
		DateFrom:  f.DateFrom,
		DateTo:    f.DateTo,
		ObjectUID: f.ObjectUID,
		ShiftType: f.ShiftType,
	})
}

func (a ShiftRecordRepoAdapter) FindByID(ctx context.Context, id int64) (pipeline.ShiftRecord, bool, error) {
	return a.Repo.FindByID(ctx, id)
}

func (a ShiftRecordRepoAdapter) ListTripsByShiftRecordID(ctx context.Context, shiftRecordID int64) ([]pipeline.Trip, error) {
	return a.Repo.ListTripsByShiftRecordID(ctx, shiftRecordID)
}

func (a ShiftRecordRepoAdapter) ListZoneEventsByVehicleDateShift(ctx context.Context, vehicleID int, date time.Time, shiftType pipeline.ShiftType) ([]pipeline.ZoneEvent, error) {
	return a.Repo.ListZoneEventsByVehicleDateShift(ctx, vehicleID, date, shiftType)
}

func (a ShiftRecordRepoAdapter) ListByRequestNumber(ctx context.Context, number int, dateFrom, dateTo time.Time) ([]pipeline.ShiftRecord, error) {
	return a.Repo.ListByRequestNumber(ctx, number, dateFrom, dateTo)
}
