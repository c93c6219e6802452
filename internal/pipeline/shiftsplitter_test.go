package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, ok := pipeline.ParseExternalTime(s)
	require.True(t, ok, "expected %q to parse", s)
	return ts
}

func TestCanonicalWindow_Shift1(t *testing.T) {
	reportDate := mustParse(t, "15.03.2026")
	win := pipeline.CanonicalWindow(reportDate, pipeline.Shift1)

	assert.Equal(t, "15.03.2026 07:30", pipeline.FormatDateMinute(win.Start))
	assert.Equal(t, "15.03.2026 19:30", pipeline.FormatDateMinute(win.End))
}

func TestCanonicalWindow_Shift2CrossesMidnight(t *testing.T) {
	reportDate := mustParse(t, "15.03.2026")
	win := pipeline.CanonicalWindow(reportDate, pipeline.Shift2)

	assert.Equal(t, "15.03.2026 19:30", pipeline.FormatDateMinute(win.Start))
	assert.Equal(t, "16.03.2026 07:30", pipeline.FormatDateMinute(win.End))
}

func TestSplitIntoShifts_SingleShiftWindow(t *testing.T) {
	start := mustParse(t, "15.03.2026 08:00")
	end := mustParse(t, "15.03.2026 12:00")

	windows := pipeline.SplitIntoShifts(start, end)

	require.Len(t, windows, 1)
	assert.Equal(t, pipeline.Shift1, windows[0].Type)
	assert.True(t, windows[0].Start.Equal(start))
	assert.True(t, windows[0].End.Equal(end))
}

func TestSplitIntoShifts_SpansMultipleShifts(t *testing.T) {
	start := mustParse(t, "15.03.2026 18:00")
	end := mustParse(t, "16.03.2026 09:00")

	windows := pipeline.SplitIntoShifts(start, end)

	require.Len(t, windows, 3)
	assert.Equal(t, pipeline.Shift1, windows[0].Type)
	assert.True(t, windows[0].Start.Equal(start))
	assert.Equal(t, "15.03.2026 19:30", pipeline.FormatDateMinute(windows[0].End))

	assert.Equal(t, pipeline.Shift2, windows[1].Type)
	assert.Equal(t, "15.03.2026 19:30", pipeline.FormatDateMinute(windows[1].Start))
	assert.Equal(t, "16.03.2026 07:30", pipeline.FormatDateMinute(windows[1].End))

	assert.Equal(t, pipeline.Shift1, windows[2].Type)
	assert.Equal(t, "16.03.2026 07:30", pipeline.FormatDateMinute(windows[2].Start))
	assert.True(t, windows[2].End.Equal(end))
}

func TestSplitIntoShifts_MultiDaySpanCoversFinalDay(t *testing.T) {
	start := mustParse(t, "15.03.2026 08:00")
	end := mustParse(t, "17.03.2026 10:00")

	windows := pipeline.SplitIntoShifts(start, end)

	last := windows[len(windows)-1]
	assert.True(t, last.End.Equal(end), "final window must reach plannedEnd's calendar day")
}

func TestSplitIntoShifts_InvalidIntervalReturnsNil(t *testing.T) {
	start := mustParse(t, "15.03.2026 08:00")
	end := mustParse(t, "15.03.2026 07:00")

	assert.Nil(t, pipeline.SplitIntoShifts(start, end))
}
