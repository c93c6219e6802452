package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// dateQueryLayout is the HTTP read surface's date query-parameter format,
// distinct from the fleet/CLI DD.MM.YYYY convention used by
// pipeline.ParseExternalTime.
const dateQueryLayout = "2006-01-02"

// parseQueryDate parses a YYYY-MM-DD query parameter in the operational
// timezone, returning ok=false on empty or malformed input.
func parseQueryDate(s string) (t time.Time, ok bool) {
	if s == "" {
		return time.Time{}, false
	}
	parsed, err := time.ParseInLocation(dateQueryLayout, s, pipeline.OperationalTimezone)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]string{"status": "ok"}, 0)
}

func (s *Server) handleObjects(w http.ResponseWriter, r *http.Request) {
	objects, err := s.Objects.ListObjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, objects, len(objects))
}

func (s *Server) handleShiftRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter ShiftRecordFilter
	if v := q.Get("dateFrom"); v != "" {
		t, ok := parseQueryDate(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid dateFrom")
			return
		}
		filter.DateFrom = t
	}
	if v := q.Get("dateTo"); v != "" {
		t, ok := parseQueryDate(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid dateTo")
			return
		}
		filter.DateTo = t
	}
	filter.ObjectUID = q.Get("objectUid")
	if v := q.Get("shiftType"); v != "" {
		filter.ShiftType = pipeline.ShiftType(v)
	}

	records, err := s.ShiftRecords.ListByFilter(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, records, len(records))
}

func (s *Server) handleTrips(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Query(r, "shiftRecordId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing shiftRecordId")
		return
	}

	trips, err := s.ShiftRecords.ListTripsByShiftRecordID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, trips, len(trips))
}

func (s *Server) handleZoneEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	vehicleID, err := strconv.Atoi(q.Get("vehicleId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing vehicleId")
		return
	}
	date, ok := parseQueryDate(q.Get("date"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid or missing date")
		return
	}
	shiftType := pipeline.ShiftType(q.Get("shiftType"))
	if shiftType == "" {
		writeError(w, http.StatusBadRequest, "missing shiftType")
		return
	}

	events, err := s.ShiftRecords.ListZoneEventsByVehicleDateShift(r.Context(), vehicleID, date, shiftType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, events, len(events))
}

func (s *Server) handleShiftDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Query(r, "shiftRecordId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing shiftRecordId")
		return
	}

	record, ok, err := s.ShiftRecords.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "shift record not found")
		return
	}
	writeData(w, record, 0)
}

// orderActivity summarises one request's shift-record activity in a period.
type orderActivity struct {
	pipeline.Request
	ShiftRecordCount int     `json:"shiftRecordCount"`
	TotalTripsCount  int     `json:"totalTripsCount"`
	TotalVolumeM3    float64 `json:"totalVolumeM3"`
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dateFrom, dateTo, err := parsePeriod(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requests, err := s.Requests.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]orderActivity, 0, len(requests))
	for _, req := range requests {
		number, err := strconv.Atoi(req.Number)
		if err != nil {
			// Non-numeric request numbers never match a parsed calc, so
			// they carry zeroed activity rather than being dropped.
			out = append(out, orderActivity{Request: req})
			continue
		}

		records, err := s.ShiftRecords.ListByRequestNumber(r.Context(), number, dateFrom, dateTo)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		activity := orderActivity{Request: req, ShiftRecordCount: len(records)}
		for _, rec := range records {
			activity.TotalTripsCount += rec.TripsCount
			activity.TotalVolumeM3 += rec.FactVolumeM3
		}
		out = append(out, activity)
	}

	writeData(w, out, len(out))
}

// ganttCell is one (vehicleId, day, shiftType) trip count.
type ganttCell struct {
	VehicleID  int               `json:"vehicleId"`
	ReportDate string            `json:"reportDate"`
	ShiftType  pipeline.ShiftType `json:"shiftType"`
	TripsCount int               `json:"tripsCount"`
}

func (s *Server) handleOrderGantt(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order number")
		return
	}

	dateFrom, dateTo, err := parsePeriod(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.ShiftRecords.ListByRequestNumber(r.Context(), number, dateFrom, dateTo)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cells := make([]ganttCell, 0, len(records))
	for _, rec := range records {
		cells = append(cells, ganttCell{
			VehicleID:  rec.VehicleID,
			ReportDate: pipeline.FormatDateOnly(rec.ReportDate),
			ShiftType:  rec.ShiftType,
			TripsCount: rec.TripsCount,
		})
	}
	writeData(w, cells, len(cells))
}

func parseInt64Query(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
}

// parsePeriod reads dateFrom/dateTo query params, defaulting to a wide-open
// range when either is absent.
func parsePeriod(q url.Values) (from, to time.Time, err error) {
	from = time.Time{}
	to = time.Now().UTC()

	if v := q.Get("dateFrom"); v != "" {
		t, ok := parseQueryDate(v)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid dateFrom")
		}
		from = t
	}
	if v := q.Get("dateTo"); v != "" {
		t, ok := parseQueryDate(v)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid dateTo")
		}
		to = t
	}
	return from, to, nil
}
