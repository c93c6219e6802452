package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

func TestRouteListParser_NormalModeFiltersBySamosval(t *testing.T) {
	parser := pipeline.NewRouteListParser(nil)

	start := mustParse(t, "15.03.2026 08:00")
	end := mustParse(t, "15.03.2026 12:00")

	lists := []pipeline.RouteList{{
		PlID:         1,
		PlannedStart: start,
		PlannedEnd:   end,
		StartParsed:  true,
		EndParsed:    true,
		Vehicles: []pipeline.RouteListVehicle{
			{VehicleID: 1, Name: "Самосвал КАМАЗ"},
			{VehicleID: 2, Name: "Легковой автомобиль"},
		},
	}}

	out := parser.Parse(lists)
	require.Len(t, out, 1)
	require.Len(t, out[0].Vehicles, 1)
	assert.Equal(t, 1, out[0].Vehicles[0].VehicleID)
}

func TestRouteListParser_TestModeFiltersByID(t *testing.T) {
	parser := pipeline.NewRouteListParser([]int{2})

	start := mustParse(t, "15.03.2026 08:00")
	end := mustParse(t, "15.03.2026 12:00")

	lists := []pipeline.RouteList{{
		PlannedStart: start,
		PlannedEnd:   end,
		StartParsed:  true,
		EndParsed:    true,
		Vehicles: []pipeline.RouteListVehicle{
			{VehicleID: 1, Name: "Самосвал"},
			{VehicleID: 2, Name: "Легковой"},
		},
	}}

	out := parser.Parse(lists)
	require.Len(t, out[0].Vehicles, 1)
	assert.Equal(t, 2, out[0].Vehicles[0].VehicleID)
}

func TestRouteListParser_SkipsUnparseableLists(t *testing.T) {
	parser := pipeline.NewRouteListParser(nil)
	out := parser.Parse([]pipeline.RouteList{{StartParsed: false, EndParsed: true}})
	assert.Empty(t, out)
}

func TestRouteListParser_ExtractsRequestNumbersDeduped(t *testing.T) {
	parser := pipeline.NewRouteListParser(nil)

	start := mustParse(t, "15.03.2026 08:00")
	end := mustParse(t, "15.03.2026 12:00")

	lists := []pipeline.RouteList{{
		PlannedStart: start,
		PlannedEnd:   end,
		StartParsed:  true,
		EndParsed:    true,
		Calcs: []pipeline.Calc{
			{OrderDescr: "№123 песок"},
			{OrderDescr: "  456 щебень"},
			{OrderDescr: "№123 повтор"},
			{OrderDescr: "без номера"},
		},
	}}

	out := parser.Parse(lists)
	require.Len(t, out, 1)
	assert.Equal(t, []int{123, 456}, out[0].RequestNumbers)
}
