package pipeline

import "time"

const (
	shift1StartHour, shift1StartMin = 7, 30
	shift1EndHour, shift1EndMin     = 19, 30
)

// CanonicalWindow computes the fixed window for (reportDate, shiftType) in
// the operational timezone, per §4.6: shift1 anchors at reportDate 07:30 and
// ends 19:30 the same day; shift2 anchors at reportDate 19:30 and ends 07:30
// the following day. reportDate's time-of-day component is ignored; only its
// calendar date (in the operational timezone) is used.
func CanonicalWindow(reportDate time.Time, shiftType ShiftType) ShiftWindow {
	local := reportDate.In(OperationalTimezone)
	y, m, d := local.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, OperationalTimezone)

	shift1Start := dayStart.Add(time.Duration(shift1StartHour)*time.Hour + time.Duration(shift1StartMin)*time.Minute)
	shift1End := dayStart.Add(time.Duration(shift1EndHour)*time.Hour + time.Duration(shift1EndMin)*time.Minute)

	switch shiftType {
	case Shift1:
		return ShiftWindow{Start: shift1Start.UTC(), End: shift1End.UTC(), Type: Shift1}
	case Shift2:
		return ShiftWindow{Start: shift1End.UTC(), End: shift1Start.Add(24 * time.Hour).UTC(), Type: Shift2}
	default:
		return ShiftWindow{}
	}
}

// SplitIntoShifts maps a planned [start, end] interval into the ordered list
// of canonical shift windows it intersects, each clipped to the input
// interval, per §4.5.
func SplitIntoShifts(plannedStart, plannedEnd time.Time) []ShiftWindow {
	if !plannedStart.Before(plannedEnd) {
		return nil
	}

	var out []ShiftWindow
	// Walk report-days from the local date of plannedStart's day-1 (a shift2
	// window can start the evening before plannedStart) through plannedEnd's
	// local date, inclusive.
	startY, startM, startD := plannedStart.In(OperationalTimezone).Date()
	startDay := time.Date(startY, startM, startD, 0, 0, 0, 0, OperationalTimezone).Add(-24 * time.Hour)

	endY, endM, endD := plannedEnd.In(OperationalTimezone).Date()
	endDay := time.Date(endY, endM, endD, 0, 0, 0, 0, OperationalTimezone)

	for day := startDay; !day.After(endDay); day = day.Add(24 * time.Hour) {
		for _, st := range []ShiftType{Shift1, Shift2} {
			win := CanonicalWindow(day, st)
			if win.Intersects(plannedStart, plannedEnd) {
				clipped := ShiftWindow{Type: st, Start: win.Start, End: win.End}
				if clipped.Start.Before(plannedStart) {
					clipped.Start = plannedStart
				}
				if clipped.End.After(plannedEnd) {
					clipped.End = plannedEnd
				}
				out = append(out, clipped)
			}
		}
	}
	return out
}
