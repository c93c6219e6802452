package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// RouteListRepository caches route-list payloads from the fleet tracker.
// Rows are upserted on every sync and never deleted, matching the teacher's
// treatment of externally sourced reference data (waypoints, systems).
type RouteListRepository struct {
	db *gorm.DB
}

// NewRouteListRepository builds a route-list repository.
func NewRouteListRepository(db *gorm.DB) *RouteListRepository {
	return &RouteListRepository{db: db}
}

// Upsert writes a route list, replacing any row with the same pl_id.
func (r *RouteListRepository) Upsert(ctx context.Context, rl pipeline.RouteList, syncedAt time.Time) error {
	model, err := routeListDomainToModel(rl, syncedAt)
	if err != nil {
		return fmt.Errorf("failed to encode route list %d: %w", rl.PlID, err)
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pl_id"}},
		UpdateAll: true,
	}).Create(model).Error; err != nil {
		return fmt.Errorf("failed to upsert route list %d: %w", rl.PlID, err)
	}
	return nil
}

// ListByWindow returns every cached route list whose planned window
// intersects [from, to).
func (r *RouteListRepository) ListByWindow(ctx context.Context, from, to time.Time) ([]pipeline.RouteList, error) {
	var models []RouteListModel
	if err := r.db.WithContext(ctx).
		Where("planned_start < ? AND planned_end > ?", to, from).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list route lists: %w", err)
	}

	out := make([]pipeline.RouteList, 0, len(models))
	for _, m := range models {
		rl, err := routeListModelToDomain(m)
		if err != nil {
			return nil, fmt.Errorf("failed to decode route list %d: %w", m.PlID, err)
		}
		out = append(out, rl)
	}
	return out, nil
}

func routeListDomainToModel(rl pipeline.RouteList, syncedAt time.Time) (*RouteListModel, error) {
	vehiclesJSON, err := json.Marshal(rl.Vehicles)
	if err != nil {
		return nil, err
	}
	calcsJSON, err := json.Marshal(rl.Calcs)
	if err != nil {
		return nil, err
	}
	return &RouteListModel{
		PlID:         rl.PlID,
		TSNumber:     rl.TSNumber,
		Status:       rl.Status,
		PlannedStart: rl.PlannedStart,
		PlannedEnd:   rl.PlannedEnd,
		VehiclesJSON: string(vehiclesJSON),
		CalcsJSON:    string(calcsJSON),
		SyncedAt:     syncedAt,
	}, nil
}

func routeListModelToDomain(m RouteListModel) (pipeline.RouteList, error) {
	var vehicles []pipeline.RouteListVehicle
	if err := json.Unmarshal([]byte(m.VehiclesJSON), &vehicles); err != nil {
		vehicles = nil
	}
	var calcs []pipeline.Calc
	if err := json.Unmarshal([]byte(m.CalcsJSON), &calcs); err != nil {
		calcs = nil
	}
	return pipeline.RouteList{
		PlID:         m.PlID,
		TSNumber:     m.TSNumber,
		Status:       m.Status,
		PlannedStart: m.PlannedStart,
		PlannedEnd:   m.PlannedEnd,
		StartParsed:  true,
		EndParsed:    true,
		Vehicles:     vehicles,
		Calcs:        calcs,
	}, nil
}
