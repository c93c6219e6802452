package persistence

import "time"

// ZoneModel represents the zones table. Geometry is stored as a JSON blob
// (no WKB/GeoJSON library exists anywhere in the pack; see GeofenceStore),
// mirroring the teacher's own JSON-as-text columns such as ContainerModel.Config.
type ZoneModel struct {
	ZoneUID   string `gorm:"column:zone_uid;primaryKey"`
	Name      string `gorm:"column:name;not null"`
	ObjectUID string `gorm:"column:object_uid;not null;index:idx_zones_object"`
	Tag       string `gorm:"column:tag;not null"`
	Geometry  string `gorm:"column:geometry;type:text;not null"` // JSON: {"polygons":[[[[lon,lat],...],...],...]}
}

func (ZoneModel) TableName() string { return "zones" }

// ObjectModel represents the objects table.
type ObjectModel struct {
	ObjectUID string `gorm:"column:object_uid;primaryKey"`
	Name      string `gorm:"column:name;not null"`
}

func (ObjectModel) TableName() string { return "objects" }

// RouteListModel represents the route_lists table, a cached shadow of
// external state (upserted, never deleted).
type RouteListModel struct {
	PlID         int       `gorm:"column:pl_id;primaryKey"`
	TSNumber     string    `gorm:"column:ts_number"`
	Status       string    `gorm:"column:status"`
	PlannedStart time.Time `gorm:"column:planned_start"`
	PlannedEnd   time.Time `gorm:"column:planned_end"`
	VehiclesJSON string    `gorm:"column:vehicles_json;type:text"`
	CalcsJSON    string    `gorm:"column:calcs_json;type:text"`
	SyncedAt     time.Time `gorm:"column:synced_at"`
}

func (RouteListModel) TableName() string { return "route_lists" }

// RequestModel represents the requests table.
type RequestModel struct {
	RequestID int    `gorm:"column:request_id;primaryKey"`
	Number    string `gorm:"column:number"`
	Status    string `gorm:"column:status"`
	Raw       string `gorm:"column:raw;type:text"`
}

func (RequestModel) TableName() string { return "requests" }

// ShiftRecordModel represents the shift_records table, the unit KPI row.
type ShiftRecordModel struct {
	ID             int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ReportDate     time.Time `gorm:"column:report_date;uniqueIndex:idx_shift_unique"`
	ShiftType      string    `gorm:"column:shift_type;uniqueIndex:idx_shift_unique"`
	VehicleID      int       `gorm:"column:vehicle_id;uniqueIndex:idx_shift_unique"`
	ObjectUID      string    `gorm:"column:object_uid;uniqueIndex:idx_shift_unique"`
	VehicleName    string    `gorm:"column:vehicle_name"`
	ObjectName     string    `gorm:"column:object_name"`
	PlID           int       `gorm:"column:pl_id"`
	RequestNumbers string    `gorm:"column:request_numbers;type:text"` // JSON int array, insertion order
	EngineTimeSec  int       `gorm:"column:engine_time_sec"`
	MovingTimeSec  int       `gorm:"column:moving_time_sec"`
	DistanceKm     float64   `gorm:"column:distance_km"`
	OnsiteMin      int       `gorm:"column:onsite_min"`
	TripsCount     int       `gorm:"column:trips_count"`
	FactVolumeM3   float64   `gorm:"column:fact_volume_m3"`
	KipPct         float64   `gorm:"column:kip_pct"`
	MovementPct    float64   `gorm:"column:movement_pct"`
	WorkType       string    `gorm:"column:work_type"`
	RawMonitoring  []byte    `gorm:"column:raw_monitoring;type:blob"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (ShiftRecordModel) TableName() string { return "shift_records" }

// TripModel represents the trips table, owned by a ShiftRecord.
type TripModel struct {
	ID             int64   `gorm:"column:id;primaryKey;autoIncrement"`
	ShiftRecordID  int64   `gorm:"column:shift_record_id;not null;index:idx_trips_shift_record"`
	TripNumber     int     `gorm:"column:trip_number"`
	LoadedAt       time.Time `gorm:"column:loaded_at"`
	UnloadedAt     time.Time `gorm:"column:unloaded_at"`
	LoadZoneName   string  `gorm:"column:load_zone_name"`
	DumpZoneName   string  `gorm:"column:dump_zone_name"`
	DurationMin    *int    `gorm:"column:duration_min"`
	VolumeM3       float64 `gorm:"column:volume_m3"`
}

func (TripModel) TableName() string { return "trips" }

// ZoneEventModel represents the zone_events table, owned by a ShiftRecord.
type ZoneEventModel struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ShiftRecordID int64      `gorm:"column:shift_record_id;not null;index:idx_zone_events_shift_record"`
	ZoneUID       string     `gorm:"column:zone_uid"`
	ZoneTag       string     `gorm:"column:zone_tag"`
	ObjectUID     string     `gorm:"column:object_uid"`
	EnteredAt     time.Time  `gorm:"column:entered_at"`
	ExitedAt      *time.Time `gorm:"column:exited_at"`
	DurationSec   *int       `gorm:"column:duration_sec"`
}

func (ZoneEventModel) TableName() string { return "zone_events" }
