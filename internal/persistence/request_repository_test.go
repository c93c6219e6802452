package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/dt-ingest/internal/persistence"
	"github.com/fleetops/dt-ingest/internal/pipeline"
)

func TestRequestRepository_UpsertAll_ThenFindByNumber(t *testing.T) {
	db, err := persistence.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewRequestRepository(db)

	requests := []pipeline.Request{
		{RequestID: 1, Number: "REQ-1", Status: "open", Raw: []byte(`{"id":1}`)},
		{RequestID: 2, Number: "REQ-2", Status: "closed", Raw: []byte(`{"id":2}`)},
	}

	require.NoError(t, repo.UpsertAll(context.Background(), requests))

	found, ok, err := repo.FindByNumber(context.Background(), "REQ-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, found.RequestID)
	assert.Equal(t, "open", found.Status)
	assert.Equal(t, []byte(`{"id":1}`), found.Raw)
}

func TestRequestRepository_UpsertAll_ReplacesExistingRow(t *testing.T) {
	db, err := persistence.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewRequestRepository(db)

	require.NoError(t, repo.UpsertAll(context.Background(), []pipeline.Request{
		{RequestID: 5, Number: "REQ-5", Status: "open"},
	}))
	require.NoError(t, repo.UpsertAll(context.Background(), []pipeline.Request{
		{RequestID: 5, Number: "REQ-5", Status: "closed"},
	}))

	found, ok, err := repo.FindByNumber(context.Background(), "REQ-5")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "closed", found.Status)
}

func TestRequestRepository_FindByNumber_NotFound(t *testing.T) {
	db, err := persistence.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewRequestRepository(db)

	_, ok, err := repo.FindByNumber(context.Background(), "missing")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequestRepository_UpsertAll_EmptyIsNoop(t *testing.T) {
	db, err := persistence.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewRequestRepository(db)

	assert.NoError(t, repo.UpsertAll(context.Background(), nil))
}
