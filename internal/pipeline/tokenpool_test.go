package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

func TestNewTokenPool_RejectsEmpty(t *testing.T) {
	_, err := pipeline.NewTokenPool(nil)
	require.Error(t, err)

	kind, ok := pipeline.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, pipeline.KindConfigMissing, kind)
}

func TestTokenPool_RoundRobin(t *testing.T) {
	pool, err := pipeline.NewTokenPool([]string{"a", "b", "c"})
	require.NoError(t, err)

	got := []string{pool.Next(), pool.Next(), pool.Next(), pool.Next()}
	assert.Equal(t, []string{"a", "b", "c", "a"}, got)
}

func TestTokenPool_Size(t *testing.T) {
	pool, err := pipeline.NewTokenPool([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Size())
}
