package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

func TestClassifyWorkType_DeliveryWhenTripsExist(t *testing.T) {
	trips := []pipeline.Trip{{TripNumber: 1}}
	assert.Equal(t, pipeline.WorkDelivery, pipeline.ClassifyWorkType(1000, 0, trips))
}

func TestClassifyWorkType_OnsiteWhenRatioAtThreshold(t *testing.T) {
	assert.Equal(t, pipeline.WorkOnsite, pipeline.ClassifyWorkType(100, 60, nil))
}

func TestClassifyWorkType_UnknownWhenNoTripsAndLowRatio(t *testing.T) {
	assert.Equal(t, pipeline.WorkUnknown, pipeline.ClassifyWorkType(100, 10, nil))
}

func TestClassifyWorkType_UnknownWhenNoEngineTime(t *testing.T) {
	assert.Equal(t, pipeline.WorkUnknown, pipeline.ClassifyWorkType(0, 0, nil))
}
