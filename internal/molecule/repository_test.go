package molecule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athena-graph/athena/internal/graph"
)

func TestGetByCID(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{Records: []graph.Record{{
		"props": map[string]any{
			"cid":     int64(2244),
			"name":    "aspirin",
			"formula": "C9H8O4",
		},
	}}})

	repo := NewRepository(client)

	props, err := repo.GetByCID(context.Background(), 2244)
	require.NoError(t, err)
	assert.Equal(t, "aspirin", props["name"])
	assert.Equal(t, "C9H8O4", props["formula"])

	calls := client.ReadCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(2244), calls[0].Params["cid"])
}

func TestGetByCIDNotFound(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{})

	repo := NewRepository(client)

	_, err := repo.GetByCID(context.Background(), 99999)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "99999")
}

func TestGetByCIDBackendError(t *testing.T) {
	client := graph.NewMemoryClient().WithError(errors.New("session expired"))
	repo := NewRepository(client)

	_, err := repo.GetByCID(context.Background(), 2244)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSearchByName(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{Records: []graph.Record{
		{"cid": int64(2244), "name": "aspirin", "formula": "C9H8O4", "smiles": "CC(=O)OC1=CC=CC=C1C(=O)O"},
		{"cid": int64(2244), "name": "aspirin lysine", "formula": nil, "smiles": nil},
	}})

	repo := NewRepository(client)

	results, err := repo.SearchByName(context.Background(), "aspirin")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(2244), results[0].CID)
	assert.Equal(t, "aspirin", results[0].Name)
	assert.Equal(t, "C9H8O4", results[0].Formula)
	assert.Empty(t, results[1].Formula)

	calls := client.ReadCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "aspirin", calls[0].Params["name"])
	assert.Equal(t, searchLimit, calls[0].Params["limit"])
}

func TestSearchByNameEmptyResult(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{})

	repo := NewRepository(client)

	results, err := repo.SearchByName(context.Background(), "unobtainium")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGetStats(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{Records: []graph.Record{{
		"total_count": int64(1500),
		"avg_weight":  287.456,
	}}})

	repo := NewRepository(client)

	stats, err := repo.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1500), stats.Molecules)
	assert.InDelta(t, 287.46, stats.AvgMolecularWeight, 1e-9)
}

func TestGetStatsEmptyGraph(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{Records: []graph.Record{{
		"total_count": int64(0),
		"avg_weight":  nil,
	}}})

	repo := NewRepository(client)

	stats, err := repo.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Molecules)
	assert.Zero(t, stats.AvgMolecularWeight)
}

func TestSuggestTreatments(t *testing.T) {
	client := graph.NewMemoryClient()
	// Disorder resolution, then direct and indirect candidates.
	client.PushReadResult(graph.Result{Records: []graph.Record{
		{"id": "inflammation", "name": "inflammation"},
	}})
	client.PushReadResult(graph.Result{Records: []graph.Record{
		{"cid": int64(2244), "name": "aspirin", "confidence": 0.95},
	}})
	client.PushReadResult(graph.Result{Records: []graph.Record{
		{"cid": int64(3672), "name": "ibuprofen", "via": "PTGS2", "confidence": 0.8},
	}})

	repo := NewRepository(client)

	suggestions, found, err := repo.SuggestTreatments(context.Background(), "Inflammation")
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, suggestions, 2)

	assert.Equal(t, "aspirin", suggestions[0].Name)
	assert.Empty(t, suggestions[0].Via)
	assert.InDelta(t, 0.95, suggestions[0].Confidence, 1e-9)

	assert.Equal(t, "ibuprofen", suggestions[1].Name)
	assert.Equal(t, "PTGS2", suggestions[1].Via)

	calls := client.ReadCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, "Inflammation", calls[0].Params["name"])
	assert.Equal(t, "inflammation", calls[1].Params["id"])
}

func TestSuggestTreatmentsUnknownDisorder(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{})

	repo := NewRepository(client)

	suggestions, found, err := repo.SuggestTreatments(context.Background(), "dragon pox")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, suggestions)
}
