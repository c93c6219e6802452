package pipeline

import (
	"strings"
	"time"
)

// External fleet-tracking service date/time layouts (Go reference time).
const (
	layoutDateOnly     = "02.01.2006"
	layoutDateMinute   = "02.01.2006 15:04"
	layoutDateSecond   = "02.01.2006 15:04:05"
)

// OperationalTimezone is the fixed display timezone the fleet-tracking
// service's timestamps are expressed in (Asia/Yekaterinburg, UTC+5).
var OperationalTimezone = time.FixedZone("Asia/Yekaterinburg", 5*60*60)

// ParseExternalTime parses a DD.MM.YYYY[ HH:mm[:ss]] timestamp as wall-clock
// time in the operational timezone and returns it converted to UTC. A
// parse failure yields ok=false; the caller decides whether that is fatal.
func ParseExternalTime(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{layoutDateSecond, layoutDateMinute, layoutDateOnly} {
		if parsed, err := time.ParseInLocation(layout, s, OperationalTimezone); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatDateOnly formats t (any timezone) as DD.MM.YYYY in the operational
// timezone, for date-only command parameters.
func FormatDateOnly(t time.Time) string {
	return t.In(OperationalTimezone).Format(layoutDateOnly)
}

// FormatDateMinute formats t as DD.MM.YYYY HH:mm in the operational
// timezone, for date-time command parameters.
func FormatDateMinute(t time.Time) string {
	return t.In(OperationalTimezone).Format(layoutDateMinute)
}

// FormatDateSecond formats t as DD.MM.YYYY HH:mm:ss in the operational
// timezone, matching the payload timestamp format.
func FormatDateSecond(t time.Time) string {
	return t.In(OperationalTimezone).Format(layoutDateSecond)
}
