package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

func boundaryZone(uid, objectUID string, x0, y0, x1, y1 float64) pipeline.Zone {
	return pipeline.Zone{
		ZoneUID:   uid,
		ObjectUID: objectUID,
		Tag:       pipeline.TagBoundary,
		Polygons: []pipeline.Polygon{{Rings: [][][2]float64{{
			{x0, y0}, {x0, y1}, {x1, y1}, {x1, y0}, {x0, y0},
		}}}},
	}
}

func TestDetectObject_PicksMaxCount(t *testing.T) {
	base := time.Now()
	zones := []pipeline.Zone{
		boundaryZone("z1", "objA", 0, 0, 10, 10),
		boundaryZone("z2", "objB", 20, 20, 30, 30),
	}
	track := []pipeline.TrackPoint{
		{Lon: 5, Lat: 5, At: base},
		{Lon: 5, Lat: 5, At: base},
		{Lon: 25, Lat: 25, At: base},
	}

	uid, ok := pipeline.DetectObject(track, zones)
	assert.True(t, ok)
	assert.Equal(t, "objA", uid)
}

func TestDetectObject_TieBreaksLexicographically(t *testing.T) {
	base := time.Now()
	zones := []pipeline.Zone{
		boundaryZone("z1", "objZ", 0, 0, 10, 10),
		boundaryZone("z2", "objA", 20, 20, 30, 30),
	}
	track := []pipeline.TrackPoint{
		{Lon: 5, Lat: 5, At: base},
		{Lon: 25, Lat: 25, At: base},
	}

	uid, ok := pipeline.DetectObject(track, zones)
	assert.True(t, ok)
	assert.Equal(t, "objA", uid)
}

func TestDetectObject_NoBoundaryContainsAnyPoint(t *testing.T) {
	zones := []pipeline.Zone{boundaryZone("z1", "objA", 0, 0, 10, 10)}
	track := []pipeline.TrackPoint{{Lon: 500, Lat: 500, At: time.Now()}}

	_, ok := pipeline.DetectObject(track, zones)
	assert.False(t, ok)
}

func TestDetectObject_EmptyTrack(t *testing.T) {
	zones := []pipeline.Zone{boundaryZone("z1", "objA", 0, 0, 10, 10)}
	_, ok := pipeline.DetectObject(nil, zones)
	assert.False(t, ok)
}
