package pipeline

import "encoding/json"

// Wire DTOs for the external fleet-tracking service's JSON payloads. Field
// names follow the upstream service's own camelCase convention, distinct
// from the pipeline's internal domain types in types.go.

type routeListResponse struct {
	List []routeListDTO `json:"list"`
}

type routeListDTO struct {
	ID          int          `json:"id"`
	TSNumber    string       `json:"tsNumber"`
	DateOut     string       `json:"dateOut"`
	DateOutPlan string       `json:"dateOutPlan"`
	DateInPlan  string       `json:"dateInPlan"`
	Status      string       `json:"status"`
	Vehicles    []vehicleDTO `json:"ts"`
	Calcs       []calcDTO    `json:"calcs"`
}

type vehicleDTO struct {
	VehicleID int    `json:"idMO"`
	RegNumber string `json:"regNumber"`
	Name      string `json:"nameMO"`
}

type calcDTO struct {
	OrderDescr   string `json:"orderDescr"`
	ObjectExpend string `json:"objectExpend"`
}

func (r routeListResponse) toDomain() []RouteList {
	out := make([]RouteList, 0, len(r.List))
	for _, dto := range r.List {
		start, startOK := ParseExternalTime(dto.DateOutPlan)
		end, endOK := ParseExternalTime(dto.DateInPlan)

		vehicles := make([]RouteListVehicle, 0, len(dto.Vehicles))
		for _, v := range dto.Vehicles {
			vehicles = append(vehicles, RouteListVehicle{
				VehicleID: v.VehicleID,
				RegNumber: v.RegNumber,
				Name:      v.Name,
			})
		}

		calcs := make([]Calc, 0, len(dto.Calcs))
		for _, c := range dto.Calcs {
			n, ok := extractLeadingRequestNumber(c.OrderDescr)
			calcs = append(calcs, Calc{
				OrderDescr:       c.OrderDescr,
				ObjectExpend:     c.ObjectExpend,
				RequestNumber:    n,
				HasRequestNumber: ok,
			})
		}

		out = append(out, RouteList{
			PlID:         dto.ID,
			TSNumber:     dto.TSNumber,
			Status:       dto.Status,
			PlannedStart: start,
			PlannedEnd:   end,
			StartParsed:  startOK,
			EndParsed:    endOK,
			Vehicles:     vehicles,
			Calcs:        calcs,
		})
	}
	return out
}

type requestListResponse struct {
	List []json.RawMessage `json:"list"`
}

type requestDTO struct {
	RequestID int    `json:"requestId"`
	Number    string `json:"number"`
	Status    string `json:"status"`
}

// toDomain decodes each list element twice: once into the typed DTO for the
// fields the pipeline acts on, retaining the untouched bytes verbatim as
// Request.Raw per §3's "opaque raw payload retained verbatim".
func (r requestListResponse) toDomain() []Request {
	out := make([]Request, 0, len(r.List))
	for _, raw := range r.List {
		var dto requestDTO
		if err := json.Unmarshal(raw, &dto); err != nil {
			continue
		}
		out = append(out, Request{
			RequestID: dto.RequestID,
			Number:    dto.Number,
			Status:    dto.Status,
			Raw:       append([]byte(nil), raw...),
		})
	}
	return out
}

type monitoringResponse struct {
	EngineTimeSec int             `json:"engineTime"`
	MovingTimeSec int             `json:"movingTime"`
	DistanceKm    float64         `json:"distance"`
	Track         []trackPointDTO `json:"track"`
}

type trackPointDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	At  string  `json:"time"`
}

func (m monitoringResponse) toDomain() Monitoring {
	track := make([]TrackPoint, 0, len(m.Track))
	for _, pt := range m.Track {
		at, ok := ParseExternalTime(pt.At)
		if !ok {
			continue
		}
		track = append(track, TrackPoint{Lat: pt.Lat, Lon: pt.Lon, At: at})
	}
	return Monitoring{
		EngineTimeSec: m.EngineTimeSec,
		MovingTimeSec: m.MovingTimeSec,
		DistanceKm:    m.DistanceKm,
		Track:         track,
	}
}
