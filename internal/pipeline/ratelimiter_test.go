package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/dt-ingest/internal/clock"
	"github.com/fleetops/dt-ingest/internal/pipeline"
)

func TestPerVehicleRateLimiter_EnforcesGapPerVehicle(t *testing.T) {
	// Arrange
	mock := clock.NewMock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	limiter := pipeline.NewPerVehicleRateLimiter(5*time.Second, mock)

	// Act
	require.NoError(t, limiter.Acquire(context.Background(), 1))
	first := mock.Now()
	require.NoError(t, limiter.Acquire(context.Background(), 1))
	second := mock.Now()

	// Assert
	assert.True(t, second.Sub(first) >= 5*time.Second)
}

func TestPerVehicleRateLimiter_DifferentVehiclesDoNotBlock(t *testing.T) {
	mock := clock.NewMock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	limiter := pipeline.NewPerVehicleRateLimiter(time.Hour, mock)

	require.NoError(t, limiter.Acquire(context.Background(), 1))
	require.NoError(t, limiter.Acquire(context.Background(), 2))

	assert.Empty(t, mock.SleptDurations())
}

func TestPerVehicleRateLimiter_CancelledContext(t *testing.T) {
	limiter := pipeline.NewPerVehicleRateLimiter(time.Hour, clock.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, limiter.Acquire(context.Background(), 9))
	err := limiter.Acquire(ctx, 9)
	assert.Error(t, err)
}
