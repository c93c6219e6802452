package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/dt-ingest/internal/httpapi"
	"github.com/fleetops/dt-ingest/internal/pipeline"
)

type fakeObjectsStore struct {
	objects []pipeline.Object
	err     error
}

func (f *fakeObjectsStore) ListObjects(ctx context.Context) ([]pipeline.Object, error) {
	return f.objects, f.err
}

type fakeShiftRecordsStore struct {
	records      []pipeline.ShiftRecord
	byID         map[int64]pipeline.ShiftRecord
	trips        map[int64][]pipeline.Trip
	zoneEvents   []pipeline.ZoneEvent
	byRequestNum map[int][]pipeline.ShiftRecord
}

func (f *fakeShiftRecordsStore) ListByFilter(ctx context.Context, filter httpapi.ShiftRecordFilter) ([]pipeline.ShiftRecord, error) {
	return f.records, nil
}

func (f *fakeShiftRecordsStore) FindByID(ctx context.Context, id int64) (pipeline.ShiftRecord, bool, error) {
	rec, ok := f.byID[id]
	return rec, ok, nil
}

func (f *fakeShiftRecordsStore) ListTripsByShiftRecordID(ctx context.Context, shiftRecordID int64) ([]pipeline.Trip, error) {
	return f.trips[shiftRecordID], nil
}

func (f *fakeShiftRecordsStore) ListZoneEventsByVehicleDateShift(ctx context.Context, vehicleID int, date time.Time, shiftType pipeline.ShiftType) ([]pipeline.ZoneEvent, error) {
	return f.zoneEvents, nil
}

func (f *fakeShiftRecordsStore) ListByRequestNumber(ctx context.Context, number int, dateFrom, dateTo time.Time) ([]pipeline.ShiftRecord, error) {
	return f.byRequestNum[number], nil
}

type fakeRequestsStore struct {
	requests []pipeline.Request
}

func (f *fakeRequestsStore) ListAll(ctx context.Context) ([]pipeline.Request, error) {
	return f.requests, nil
}

func decodeEnvelope(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestHandleHealth(t *testing.T) {
	s := &httpapi.Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/health", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec.Body.Bytes())
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
}

func TestHandleObjects(t *testing.T) {
	s := &httpapi.Server{Objects: &fakeObjectsStore{objects: []pipeline.Object{{ObjectUID: "obj_1", Name: "Site A"}}}}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/objects", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec.Body.Bytes())
	assert.Equal(t, float64(1), body["total"])
}

func TestHandleShiftRecords_FiltersFromQuery(t *testing.T) {
	s := &httpapi.Server{ShiftRecords: &fakeShiftRecordsStore{
		records: []pipeline.ShiftRecord{{VehicleID: 10, ObjectUID: "obj_1"}},
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/shift-records?dateFrom=2026-07-01&dateTo=2026-07-30&objectUid=obj_1&shiftType=shift1", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleShiftRecords_InvalidDateFrom(t *testing.T) {
	s := &httpapi.Server{ShiftRecords: &fakeShiftRecordsStore{}}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/shift-records?dateFrom=not-a-date", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTrips_MissingShiftRecordId(t *testing.T) {
	s := &httpapi.Server{ShiftRecords: &fakeShiftRecordsStore{}}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/trips", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTrips_ReturnsTrips(t *testing.T) {
	s := &httpapi.Server{ShiftRecords: &fakeShiftRecordsStore{
		trips: map[int64][]pipeline.Trip{7: {{TripNumber: 1}, {TripNumber: 2}}},
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/trips?shiftRecordId=7", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec.Body.Bytes())
	assert.Equal(t, float64(2), body["total"])
}

func TestHandleZoneEvents_MissingParams(t *testing.T) {
	s := &httpapi.Server{ShiftRecords: &fakeShiftRecordsStore{}}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/zone-events", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleZoneEvents_ReturnsEvents(t *testing.T) {
	s := &httpapi.Server{ShiftRecords: &fakeShiftRecordsStore{
		zoneEvents: []pipeline.ZoneEvent{{ZoneUID: "dt_loading_1"}},
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/zone-events?vehicleId=10&date=2026-07-30&shiftType=shift1", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleShiftDetail_NotFound(t *testing.T) {
	s := &httpapi.Server{ShiftRecords: &fakeShiftRecordsStore{byID: map[int64]pipeline.ShiftRecord{}}}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/shift-detail?shiftRecordId=99", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleShiftDetail_Found(t *testing.T) {
	s := &httpapi.Server{ShiftRecords: &fakeShiftRecordsStore{
		byID: map[int64]pipeline.ShiftRecord{7: {ID: 7, VehicleID: 10}},
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/shift-detail?shiftRecordId=7", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleOrders_AggregatesActivity(t *testing.T) {
	s := &httpapi.Server{
		Requests: &fakeRequestsStore{requests: []pipeline.Request{{RequestID: 1, Number: "100", Status: "open"}}},
		ShiftRecords: &fakeShiftRecordsStore{
			byRequestNum: map[int][]pipeline.ShiftRecord{
				100: {{TripsCount: 3, FactVolumeM3: 45.5}, {TripsCount: 2, FactVolumeM3: 10}},
			},
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/orders", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec.Body.Bytes())
	data := body["data"].([]any)
	require.Len(t, data, 1)
	first := data[0].(map[string]any)
	assert.Equal(t, float64(2), first["shiftRecordCount"])
	assert.Equal(t, float64(5), first["totalTripsCount"])
	assert.InDelta(t, 55.5, first["totalVolumeM3"], 0.001)
}

func TestHandleOrderGantt(t *testing.T) {
	s := &httpapi.Server{
		ShiftRecords: &fakeShiftRecordsStore{
			byRequestNum: map[int][]pipeline.ShiftRecord{
				100: {{VehicleID: 10, ShiftType: pipeline.Shift1, TripsCount: 3}},
			},
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/dt/orders/100/gantt", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec.Body.Bytes())
	assert.Equal(t, float64(1), body["total"])
}

func TestHandleAdminFetch_FiresRunnerAndRespondsImmediately(t *testing.T) {
	started := make(chan struct{})
	s := &httpapi.Server{
		Run: func(ctx context.Context, date time.Time, shiftType pipeline.ShiftType) {
			close(started)
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/dt/admin/fetch?date=2026-07-30&shift=shift1", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	body := decodeEnvelope(t, rec.Body.Bytes())
	assert.Equal(t, "started", body["status"])

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("runner was not fired")
	}
}

func TestHandleAdminFetch_InvalidShift(t *testing.T) {
	s := &httpapi.Server{Run: func(ctx context.Context, date time.Time, shiftType pipeline.ShiftType) {}}
	req := httptest.NewRequest(http.MethodPost, "/api/dt/admin/fetch?date=2026-07-30&shift=bogus", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
