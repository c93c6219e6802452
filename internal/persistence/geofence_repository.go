package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// dtZonePrefix is the reserved family loaded into a pipeline run.
const dtZonePrefix = "dt_"

// zoneGeometry is the JSON shape stored in ZoneModel.Geometry.
type zoneGeometry struct {
	Polygons [][][][2]float64 `json:"polygons"` // polygon -> ring -> point
}

// GeofenceRepository implements C7's eager-load-then-snapshot contract over
// GORM, the same "load once, hand back a materialized slice" shape the
// teacher uses for its waypoint/system-graph repositories.
type GeofenceRepository struct {
	db *gorm.DB
}

// NewGeofenceRepository builds a geofence repository.
func NewGeofenceRepository(db *gorm.DB) *GeofenceRepository {
	return &GeofenceRepository{db: db}
}

// LoadZones returns every zone whose uid carries the reserved "dt_" prefix.
// An empty result is not an error here; callers decide whether that's fatal
// (ingestion run: fatal: admin service: not fatal, per §4.7).
func (r *GeofenceRepository) LoadZones(ctx context.Context) ([]pipeline.Zone, error) {
	var models []ZoneModel
	if err := r.db.WithContext(ctx).
		Where("zone_uid LIKE ?", dtZonePrefix+"%").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}

	zones := make([]pipeline.Zone, 0, len(models))
	for _, m := range models {
		zone, err := zoneModelToDomain(m)
		if err != nil {
			return nil, fmt.Errorf("failed to decode geometry for zone %s: %w", m.ZoneUID, err)
		}
		zones = append(zones, zone)
	}
	return zones, nil
}

// UpsertZone creates or replaces a zone, used by the geofence-admin service.
func (r *GeofenceRepository) UpsertZone(ctx context.Context, zone pipeline.Zone) error {
	model, err := zoneDomainToModel(zone)
	if err != nil {
		return fmt.Errorf("failed to encode geometry for zone %s: %w", zone.ZoneUID, err)
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to upsert zone: %w", err)
	}
	return nil
}

// ListObjects returns every known object.
func (r *GeofenceRepository) ListObjects(ctx context.Context) ([]pipeline.Object, error) {
	var models []ObjectModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	out := make([]pipeline.Object, 0, len(models))
	for _, m := range models {
		out = append(out, pipeline.Object{ObjectUID: m.ObjectUID, Name: m.Name})
	}
	return out, nil
}

func zoneModelToDomain(m ZoneModel) (pipeline.Zone, error) {
	var geom zoneGeometry
	if err := json.Unmarshal([]byte(m.Geometry), &geom); err != nil {
		return pipeline.Zone{}, err
	}

	polygons := make([]pipeline.Polygon, 0, len(geom.Polygons))
	for _, rings := range geom.Polygons {
		polygons = append(polygons, pipeline.Polygon{Rings: rings})
	}

	return pipeline.Zone{
		ZoneUID:   m.ZoneUID,
		Name:      m.Name,
		ObjectUID: m.ObjectUID,
		Tag:       pipeline.ZoneTag(m.Tag),
		Polygons:  polygons,
	}, nil
}

func zoneDomainToModel(z pipeline.Zone) (*ZoneModel, error) {
	geom := zoneGeometry{Polygons: make([][][][2]float64, 0, len(z.Polygons))}
	for _, p := range z.Polygons {
		geom.Polygons = append(geom.Polygons, p.Rings)
	}
	blob, err := json.Marshal(geom)
	if err != nil {
		return nil, err
	}
	return &ZoneModel{
		ZoneUID:   z.ZoneUID,
		Name:      z.Name,
		ObjectUID: z.ObjectUID,
		Tag:       string(z.Tag),
		Geometry:  string(blob),
	}, nil
}
