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

// ShiftRecordRepository persists one vehicle's per-shift KPI result: the
// shift record itself (merged by its unique key) plus its owned trips and
// zone events, replaced wholesale inside the same transaction. Grounded on
// the teacher's transactional repository writes (db.Transaction(func(tx
// *gorm.DB) error {...})) generalized from a single aggregate write to the
// record-plus-two-child-collections shape this domain needs.
type ShiftRecordRepository struct {
	db *gorm.DB
}

// NewShiftRecordRepository builds a shift record repository.
func NewShiftRecordRepository(db *gorm.DB) *ShiftRecordRepository {
	return &ShiftRecordRepository{db: db}
}

// Save upserts the shift record by its unique key, stamping updated_at with
// the current time on every write, then atomically replaces its trips and
// zone events. The whole operation commits or rolls back together; a
// failure at any step leaves prior state untouched.
func (r *ShiftRecordRepository) Save(ctx context.Context, rec pipeline.ShiftRecord) error {
	model, err := shiftRecordDomainToModel(rec)
	if err != nil {
		return pipeline.NewError(pipeline.KindPersistence, "ShiftRecordRepository.Save", err)
	}
	model.UpdatedAt = time.Now().UTC()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "report_date"}, {Name: "shift_type"}, {Name: "vehicle_id"}, {Name: "object_uid"}},
			UpdateAll: true,
		}).Create(model).Error; txErr != nil {
			return fmt.Errorf("failed to upsert shift record: %w", txErr)
		}

		// The OnConflict path updates an existing row without populating
		// model.ID with its primary key, so re-read the merged row by its
		// unique key before writing the owned collections.
		var persisted ShiftRecordModel
		if txErr := tx.Where("report_date = ? AND shift_type = ? AND vehicle_id = ? AND object_uid = ?",
			model.ReportDate, model.ShiftType, model.VehicleID, model.ObjectUID).First(&persisted).Error; txErr != nil {
			return fmt.Errorf("failed to reload upserted shift record: %w", txErr)
		}
		model.ID = persisted.ID

		if txErr := tx.Where("shift_record_id = ?", model.ID).Delete(&TripModel{}).Error; txErr != nil {
			return fmt.Errorf("failed to clear trips: %w", txErr)
		}
		if len(rec.Trips) > 0 {
			tripModels := make([]TripModel, 0, len(rec.Trips))
			for _, trip := range rec.Trips {
				tripModels = append(tripModels, tripDomainToModel(trip, model.ID))
			}
			if txErr := tx.Create(&tripModels).Error; txErr != nil {
				return fmt.Errorf("failed to insert trips: %w", txErr)
			}
		}

		if txErr := tx.Where("shift_record_id = ?", model.ID).Delete(&ZoneEventModel{}).Error; txErr != nil {
			return fmt.Errorf("failed to clear zone events: %w", txErr)
		}
		if len(rec.ZoneEvents) > 0 {
			eventModels := make([]ZoneEventModel, 0, len(rec.ZoneEvents))
			for _, ev := range rec.ZoneEvents {
				eventModels = append(eventModels, zoneEventDomainToModel(ev, model.ID))
			}
			if txErr := tx.Create(&eventModels).Error; txErr != nil {
				return fmt.Errorf("failed to insert zone events: %w", txErr)
			}
		}

		return nil
	})
	if err != nil {
		return pipeline.NewError(pipeline.KindPersistence, "ShiftRecordRepository.Save", err)
	}
	return nil
}

// Find looks up a shift record (with its trips and zone events) by its
// unique key.
func (r *ShiftRecordRepository) Find(ctx context.Context, reportDate pipeline.ShiftRecord) (pipeline.ShiftRecord, bool, error) {
	var model ShiftRecordModel
	err := r.db.WithContext(ctx).
		Where("report_date = ? AND shift_type = ? AND vehicle_id = ? AND object_uid = ?",
			reportDate.ReportDate, string(reportDate.ShiftType), reportDate.VehicleID, reportDate.ObjectUID).
		First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return pipeline.ShiftRecord{}, false, nil
	}
	if err != nil {
		return pipeline.ShiftRecord{}, false, fmt.Errorf("failed to find shift record: %w", err)
	}

	var tripModels []TripModel
	if err := r.db.WithContext(ctx).Where("shift_record_id = ?", model.ID).Order("trip_number").Find(&tripModels).Error; err != nil {
		return pipeline.ShiftRecord{}, false, fmt.Errorf("failed to load trips: %w", err)
	}
	var eventModels []ZoneEventModel
	if err := r.db.WithContext(ctx).Where("shift_record_id = ?", model.ID).Order("entered_at").Find(&eventModels).Error; err != nil {
		return pipeline.ShiftRecord{}, false, fmt.Errorf("failed to load zone events: %w", err)
	}

	rec, err := shiftRecordModelToDomain(model, tripModels, eventModels)
	if err != nil {
		return pipeline.ShiftRecord{}, false, fmt.Errorf("failed to decode shift record: %w", err)
	}
	return rec, true, nil
}

// ShiftRecordFilter narrows ListByFilter; zero-valued fields are ignored.
type ShiftRecordFilter struct {
	DateFrom  time.Time
	DateTo    time.Time
	ObjectUID string
	ShiftType pipeline.ShiftType
}

// ListByFilter returns shift records (without their trips/zone events, for
// listing endpoints) matching the given filter.
func (r *ShiftRecordRepository) ListByFilter(ctx context.Context, f ShiftRecordFilter) ([]pipeline.ShiftRecord, error) {
	q := r.db.WithContext(ctx).Model(&ShiftRecordModel{})
	if !f.DateFrom.IsZero() {
		q = q.Where("report_date >= ?", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		q = q.Where("report_date <= ?", f.DateTo)
	}
	if f.ObjectUID != "" {
		q = q.Where("object_uid = ?", f.ObjectUID)
	}
	if f.ShiftType != "" {
		q = q.Where("shift_type = ?", string(f.ShiftType))
	}

	var models []ShiftRecordModel
	if err := q.Order("report_date, vehicle_id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list shift records: %w", err)
	}

	out := make([]pipeline.ShiftRecord, 0, len(models))
	for _, m := range models {
		rec, err := shiftRecordModelToDomain(m, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decode shift record %d: %w", m.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// FindByID loads a single shift record with its trips and zone events.
func (r *ShiftRecordRepository) FindByID(ctx context.Context, id int64) (pipeline.ShiftRecord, bool, error) {
	var model ShiftRecordModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err == gorm.ErrRecordNotFound {
		return pipeline.ShiftRecord{}, false, nil
	}
	if err != nil {
		return pipeline.ShiftRecord{}, false, fmt.Errorf("failed to find shift record %d: %w", id, err)
	}

	var tripModels []TripModel
	if err := r.db.WithContext(ctx).Where("shift_record_id = ?", model.ID).Order("trip_number").Find(&tripModels).Error; err != nil {
		return pipeline.ShiftRecord{}, false, fmt.Errorf("failed to load trips: %w", err)
	}
	var eventModels []ZoneEventModel
	if err := r.db.WithContext(ctx).Where("shift_record_id = ?", model.ID).Order("entered_at").Find(&eventModels).Error; err != nil {
		return pipeline.ShiftRecord{}, false, fmt.Errorf("failed to load zone events: %w", err)
	}

	rec, err := shiftRecordModelToDomain(model, tripModels, eventModels)
	if err != nil {
		return pipeline.ShiftRecord{}, false, fmt.Errorf("failed to decode shift record %d: %w", id, err)
	}
	return rec, true, nil
}

// ListTripsByShiftRecordID returns a shift record's trips in trip order.
func (r *ShiftRecordRepository) ListTripsByShiftRecordID(ctx context.Context, shiftRecordID int64) ([]pipeline.Trip, error) {
	var models []TripModel
	if err := r.db.WithContext(ctx).Where("shift_record_id = ?", shiftRecordID).Order("trip_number").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	out := make([]pipeline.Trip, 0, len(models))
	for _, m := range models {
		out = append(out, tripModelToDomain(m))
	}
	return out, nil
}

// ListZoneEventsByVehicleDateShift returns the raw zone events recorded for
// one vehicle's shift record on a given report date.
func (r *ShiftRecordRepository) ListZoneEventsByVehicleDateShift(ctx context.Context, vehicleID int, date time.Time, shiftType pipeline.ShiftType) ([]pipeline.ZoneEvent, error) {
	var srModel ShiftRecordModel
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND report_date = ? AND shift_type = ?", vehicleID, date, string(shiftType)).
		First(&srModel).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find shift record for zone events: %w", err)
	}

	var models []ZoneEventModel
	if err := r.db.WithContext(ctx).Where("shift_record_id = ?", srModel.ID).Order("entered_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list zone events: %w", err)
	}
	out := make([]pipeline.ZoneEvent, 0, len(models))
	for _, m := range models {
		out = append(out, zoneEventModelToDomain(m))
	}
	return out, nil
}

// ListByRequestNumber returns the shift records (report date, shift type,
// vehicle id and trips populated) whose RequestNumbers include number,
// within [dateFrom, dateTo]. RequestNumbers is stored as a JSON array, so
// the SQL filter is a coarse substring match; membership is confirmed in
// Go against the decoded slice before a row is returned.
func (r *ShiftRecordRepository) ListByRequestNumber(ctx context.Context, number int, dateFrom, dateTo time.Time) ([]pipeline.ShiftRecord, error) {
	var models []ShiftRecordModel
	needle := fmt.Sprintf("%d", number)
	err := r.db.WithContext(ctx).
		Where("report_date >= ? AND report_date <= ?", dateFrom, dateTo).
		Where("request_numbers LIKE ?", "%"+needle+"%").
		Order("report_date, vehicle_id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shift records by request number: %w", err)
	}

	out := make([]pipeline.ShiftRecord, 0, len(models))
	for _, m := range models {
		var tripModels []TripModel
		if err := r.db.WithContext(ctx).Where("shift_record_id = ?", m.ID).Order("trip_number").Find(&tripModels).Error; err != nil {
			return nil, fmt.Errorf("failed to load trips for shift record %d: %w", m.ID, err)
		}
		rec, err := shiftRecordModelToDomain(m, tripModels, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decode shift record %d: %w", m.ID, err)
		}
		if !containsInt(rec.RequestNumbers, number) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func shiftRecordDomainToModel(rec pipeline.ShiftRecord) (*ShiftRecordModel, error) {
	numbersJSON, err := json.Marshal(rec.RequestNumbers)
	if err != nil {
		return nil, err
	}
	return &ShiftRecordModel{
		ReportDate:     rec.ReportDate,
		ShiftType:      string(rec.ShiftType),
		VehicleID:      rec.VehicleID,
		ObjectUID:      rec.ObjectUID,
		VehicleName:    rec.VehicleName,
		ObjectName:     rec.ObjectName,
		PlID:           rec.PlID,
		RequestNumbers: string(numbersJSON),
		EngineTimeSec:  rec.EngineTimeSec,
		MovingTimeSec:  rec.MovingTimeSec,
		DistanceKm:     rec.DistanceKm,
		OnsiteMin:      rec.OnsiteMin,
		TripsCount:     rec.TripsCount,
		FactVolumeM3:   rec.FactVolumeM3,
		KipPct:         rec.KipPct,
		MovementPct:    rec.MovementPct,
		WorkType:       string(rec.WorkType),
		RawMonitoring:  rec.RawMonitoring,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}

func shiftRecordModelToDomain(m ShiftRecordModel, tripModels []TripModel, eventModels []ZoneEventModel) (pipeline.ShiftRecord, error) {
	var numbers []int
	if err := json.Unmarshal([]byte(m.RequestNumbers), &numbers); err != nil {
		numbers = nil
	}

	trips := make([]pipeline.Trip, 0, len(tripModels))
	for _, t := range tripModels {
		trips = append(trips, tripModelToDomain(t))
	}
	events := make([]pipeline.ZoneEvent, 0, len(eventModels))
	for _, e := range eventModels {
		events = append(events, zoneEventModelToDomain(e))
	}

	return pipeline.ShiftRecord{
		ID:             m.ID,
		ReportDate:     m.ReportDate,
		ShiftType:      pipeline.ShiftType(m.ShiftType),
		VehicleID:      m.VehicleID,
		ObjectUID:      m.ObjectUID,
		VehicleName:    m.VehicleName,
		ObjectName:     m.ObjectName,
		PlID:           m.PlID,
		RequestNumbers: numbers,
		EngineTimeSec:  m.EngineTimeSec,
		MovingTimeSec:  m.MovingTimeSec,
		DistanceKm:     m.DistanceKm,
		OnsiteMin:      m.OnsiteMin,
		TripsCount:     m.TripsCount,
		FactVolumeM3:   m.FactVolumeM3,
		KipPct:         m.KipPct,
		MovementPct:    m.MovementPct,
		WorkType:       pipeline.WorkType(m.WorkType),
		RawMonitoring:  m.RawMonitoring,
		UpdatedAt:      m.UpdatedAt,
		Trips:          trips,
		ZoneEvents:     events,
	}, nil
}

func tripDomainToModel(t pipeline.Trip, shiftRecordID int64) TripModel {
	return TripModel{
		ShiftRecordID: shiftRecordID,
		TripNumber:    t.TripNumber,
		LoadedAt:      t.LoadedAt,
		UnloadedAt:    t.UnloadedAt,
		LoadZoneName:  t.LoadZoneName,
		DumpZoneName:  t.DumpZoneName,
		DurationMin:   t.DurationMin,
		VolumeM3:      t.VolumeM3,
	}
}

func tripModelToDomain(m TripModel) pipeline.Trip {
	return pipeline.Trip{
		TripNumber:   m.TripNumber,
		LoadedAt:     m.LoadedAt,
		UnloadedAt:   m.UnloadedAt,
		LoadZoneName: m.LoadZoneName,
		DumpZoneName: m.DumpZoneName,
		DurationMin:  m.DurationMin,
		VolumeM3:     m.VolumeM3,
	}
}

func zoneEventDomainToModel(e pipeline.ZoneEvent, shiftRecordID int64) ZoneEventModel {
	return ZoneEventModel{
		ShiftRecordID: shiftRecordID,
		ZoneUID:       e.ZoneUID,
		ZoneTag:       string(e.ZoneTag),
		ObjectUID:     e.ObjectUID,
		EnteredAt:     e.EnteredAt,
		ExitedAt:      e.ExitedAt,
		DurationSec:   e.DurationSec,
	}
}

func zoneEventModelToDomain(m ZoneEventModel) pipeline.ZoneEvent {
	return pipeline.ZoneEvent{
		ZoneUID:     m.ZoneUID,
		ZoneTag:     pipeline.ZoneTag(m.ZoneTag),
		ObjectUID:   m.ObjectUID,
		EnteredAt:   m.EnteredAt,
		ExitedAt:    m.ExitedAt,
		DurationSec: m.DurationSec,
	}
}
