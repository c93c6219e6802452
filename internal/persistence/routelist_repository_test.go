package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/dt-ingest/internal/persistence"
	"github.com/fleetops/dt-ingest/internal/pipeline"
)

func TestRouteListRepository_Upsert_ThenListByWindow(t *testing.T) {
	db, err := persistence.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewRouteListRepository(db)

	start := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 1, 20, 0, 0, 0, time.UTC)
	rl := pipeline.RouteList{
		PlID:         42,
		TSNumber:     "TS-1",
		Status:       "active",
		PlannedStart: start,
		PlannedEnd:   end,
		Vehicles:     []pipeline.RouteListVehicle{{VehicleID: 1, RegNumber: "A001", Name: "Truck 1"}},
		Calcs:        []pipeline.Calc{{OrderDescr: "order #123", RequestNumber: 123, HasRequestNumber: true}},
	}

	// Act
	require.NoError(t, repo.Upsert(context.Background(), rl, time.Now().UTC()))
	found, err := repo.ListByWindow(context.Background(), start.Add(-time.Hour), end.Add(time.Hour))

	// Assert
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 42, found[0].PlID)
	assert.Equal(t, "TS-1", found[0].TSNumber)
	require.Len(t, found[0].Vehicles, 1)
	assert.Equal(t, "Truck 1", found[0].Vehicles[0].Name)
	require.Len(t, found[0].Calcs, 1)
	assert.Equal(t, 123, found[0].Calcs[0].RequestNumber)
}

func TestRouteListRepository_Upsert_ReplacesExistingRow(t *testing.T) {
	db, err := persistence.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewRouteListRepository(db)

	start := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 1, 20, 0, 0, 0, time.UTC)
	rl := pipeline.RouteList{PlID: 7, Status: "planned", PlannedStart: start, PlannedEnd: end}
	require.NoError(t, repo.Upsert(context.Background(), rl, time.Now().UTC()))

	rl.Status = "completed"
	require.NoError(t, repo.Upsert(context.Background(), rl, time.Now().UTC()))

	found, err := repo.ListByWindow(context.Background(), start, end.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "completed", found[0].Status)
}

func TestRouteListRepository_ListByWindow_ExcludesNonOverlapping(t *testing.T) {
	db, err := persistence.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewRouteListRepository(db)

	rl := pipeline.RouteList{
		PlID:         1,
		PlannedStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PlannedEnd:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(context.Background(), rl, time.Now().UTC()))

	found, err := repo.ListByWindow(context.Background(),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Empty(t, found)
}
