package pipeline

import (
	"strings"
)

// dumpTruckNameSubstring is the substring used to pick dump-truck vehicles out of a
// route list's cohort in normal (non-test) mode.
const dumpTruckNameSubstring = "самосвал"

// RouteListParser filters route lists to target vehicles, extracts request
// numbers from calcs, and splits planned periods into shifts (§4.5).
type RouteListParser struct {
	TestVehicleIDs map[int]struct{}
}

// NewRouteListParser builds a parser. testVehicleIDs may be nil/empty for
// normal (non-test) mode.
func NewRouteListParser(testVehicleIDs []int) *RouteListParser {
	set := make(map[int]struct{}, len(testVehicleIDs))
	for _, id := range testVehicleIDs {
		set[id] = struct{}{}
	}
	return &RouteListParser{TestVehicleIDs: set}
}

// ParsedRouteList is a RouteList after vehicle filtering and request-number
// extraction, carrying its shift split.
type ParsedRouteList struct {
	List     RouteList
	Vehicles []RouteListVehicle
	RequestNumbers []int
	Shifts   []ShiftWindow
}

// Parse filters and annotates raw route lists. Lists whose planned start or
// end fails to parse are skipped entirely.
func (p *RouteListParser) Parse(lists []RouteList) []ParsedRouteList {
	var out []ParsedRouteList
	for _, l := range lists {
		if !l.StartParsed || !l.EndParsed {
			continue
		}

		vehicles := p.filterVehicles(l.Vehicles)
		reqNumbers := extractRequestNumbers(l.Calcs)
		shifts := SplitIntoShifts(l.PlannedStart, l.PlannedEnd)

		out = append(out, ParsedRouteList{
			List:           l,
			Vehicles:       vehicles,
			RequestNumbers: reqNumbers,
			Shifts:         shifts,
		})
	}
	return out
}

func (p *RouteListParser) isTestMode() bool {
	return len(p.TestVehicleIDs) > 0
}

func (p *RouteListParser) filterVehicles(vehicles []RouteListVehicle) []RouteListVehicle {
	var out []RouteListVehicle
	for _, v := range vehicles {
		if p.isTestMode() {
			if _, ok := p.TestVehicleIDs[v.VehicleID]; ok {
				out = append(out, v)
			}
			continue
		}
		if strings.Contains(strings.ToLower(v.Name), dumpTruckNameSubstring) {
			out = append(out, v)
		}
	}
	return out
}

// extractRequestNumbers pulls the leading integer out of each calc's
// OrderDescr (after stripping a leading "№" and whitespace), deduplicating
// while preserving first-seen order.
func extractRequestNumbers(calcs []Calc) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, c := range calcs {
		n, ok := extractLeadingRequestNumber(c.OrderDescr)
		if !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func extractLeadingRequestNumber(descr string) (int, bool) {
	s := strings.TrimSpace(descr)
	s = strings.TrimPrefix(s, "№")
	s = strings.TrimSpace(s)

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n := 0
	for i := 0; i < end; i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
