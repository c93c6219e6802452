// Package httpapi serves the read-only JSON surface a dashboard consumes
// plus the one write endpoint that fires an ingestion run. The teacher's own
// daemon only ever speaks gRPC, so this package is grounded on the router
// shape shown by the go-chi/chi/v5 tests in the sibling datastorage service:
// one chi.Router, one handler per resource, no middleware beyond request logging and panic recovery.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// ObjectsStore is the subset of persistence.GeofenceRepository the API needs.
type ObjectsStore interface {
	ListObjects(ctx context.Context) ([]pipeline.Object, error)
}

// ShiftRecordsStore is the subset of persistence.ShiftRecordRepository the
// API needs to serve shift-record, trip, zone-event and order endpoints.
type ShiftRecordsStore interface {
	ListByFilter(ctx context.Context, f ShiftRecordFilter) ([]pipeline.ShiftRecord, error)
	FindByID(ctx context.Context, id int64) (pipeline.ShiftRecord, bool, error)
	ListTripsByShiftRecordID(ctx context.Context, shiftRecordID int64) ([]pipeline.Trip, error)
	ListZoneEventsByVehicleDateShift(ctx context.Context, vehicleID int, date time.Time, shiftType pipeline.ShiftType) ([]pipeline.ZoneEvent, error)
	ListByRequestNumber(ctx context.Context, number int, dateFrom, dateTo time.Time) ([]pipeline.ShiftRecord, error)
}

// ShiftRecordFilter mirrors persistence.ShiftRecordFilter without binding
// this package to the persistence package's concrete type.
type ShiftRecordFilter struct {
	DateFrom  time.Time
	DateTo    time.Time
	ObjectUID string
	ShiftType pipeline.ShiftType
}

// RequestsStore is the subset of persistence.RequestRepository the orders
// endpoints need.
type RequestsStore interface {
	ListAll(ctx context.Context) ([]pipeline.Request, error)
}

// Runner is the orchestrator entry point the admin-fetch endpoint fires
// on a background goroutine.
type Runner func(ctx context.Context, date time.Time, shiftType pipeline.ShiftType)

// Server bundles the stores and the orchestrator runner behind chi routes.
type Server struct {
	Objects      ObjectsStore
	ShiftRecords ShiftRecordsStore
	Requests     RequestsStore
	Run          Runner
	Logger       *log.Logger
}

// NewRouter builds the /api/dt router per the external-interfaces table:
// health, objects, shift-records, trips, zone-events, orders, order gantt,
// shift-detail, and the admin fetch trigger.
func (s *Server) NewRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/dt", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/objects", s.handleObjects)
		r.Get("/shift-records", s.handleShiftRecords)
		r.Get("/trips", s.handleTrips)
		r.Get("/zone-events", s.handleZoneEvents)
		r.Get("/orders", s.handleOrders)
		r.Get("/orders/{number}/gantt", s.handleOrderGantt)
		r.Get("/shift-detail", s.handleShiftDetail)
		r.Post("/admin/fetch", s.handleAdminFetch)
	})

	return r
}

func (s *Server) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

// envelope is the {data: ..., total?: ...} response shape used by every
// read endpoint.
type envelope struct {
	Data  any `json:"data"`
	Total int `json:"total,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, envelope{Data: data, Total: total})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
