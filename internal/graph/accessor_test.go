package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCypherAccessorGetNode(t *testing.T) {
	client := NewMemoryClient()
	client.PushReadResult(Result{Records: []Record{{
		"id":     "2244",
		"labels": []any{"Molecule"},
		"props":  map[string]any{"name": "aspirin", "cid": int64(2244)},
	}}})

	accessor := NewCypherAccessor(client, nil)

	node, err := accessor.GetNode(context.Background(), "2244")
	require.NoError(t, err)
	assert.Equal(t, "2244", node.ID)
	assert.Equal(t, []string{"Molecule"}, node.Labels)
	assert.Equal(t, "aspirin", node.Properties["name"])

	calls := client.ReadCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "2244", calls[0].Params["id"])
}

func TestCypherAccessorGetNodeNotFound(t *testing.T) {
	client := NewMemoryClient()
	client.PushReadResult(Result{})

	accessor := NewCypherAccessor(client, nil)

	_, err := accessor.GetNode(context.Background(), "ghost")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCypherAccessorGetNodeBackendError(t *testing.T) {
	client := NewMemoryClient().WithError(errors.New("connection reset"))
	accessor := NewCypherAccessor(client, nil)

	_, err := accessor.GetNode(context.Background(), "2244")
	require.Error(t, err)
	var nf *NotFoundError
	assert.False(t, errors.As(err, &nf))
}

func TestCypherAccessorNeighbors(t *testing.T) {
	client := NewMemoryClient()
	client.PushReadResult(Result{Records: []Record{
		{
			"type":   "TARGETS",
			"weight": 0.9,
			"id":     "ptgs2",
			"labels": []any{"Protein"},
			"props":  map[string]any{"name": "PTGS2"},
		},
		{
			"type":   "TREATS",
			"weight": int64(1),
			"id":     "pain",
			"labels": []any{"Disorder"},
			"props":  map[string]any{},
		},
		{
			"type":   "MENTIONED_WITH",
			"weight": nil,
			"id":     "caffeine",
			"labels": []any{"Molecule"},
			"props":  map[string]any{},
		},
	}})

	accessor := NewCypherAccessor(client, nil)

	neighbors, err := accessor.Neighbors(context.Background(), "2244", []string{"TARGETS", "TREATS", "MENTIONED_WITH"})
	require.NoError(t, err)
	require.Len(t, neighbors, 3)

	assert.Equal(t, "2244", neighbors[0].Edge.From)
	assert.Equal(t, "ptgs2", neighbors[0].Edge.To)
	assert.Equal(t, "TARGETS", neighbors[0].Edge.Type)
	require.NotNil(t, neighbors[0].Edge.Weight)
	assert.InDelta(t, 0.9, *neighbors[0].Edge.Weight, 1e-9)

	// Integer weights from Bolt are converted.
	require.NotNil(t, neighbors[1].Edge.Weight)
	assert.InDelta(t, 1.0, *neighbors[1].Edge.Weight, 1e-9)

	// Absent weight property stays nil.
	assert.Nil(t, neighbors[2].Edge.Weight)

	calls := client.ReadCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"TARGETS", "TREATS", "MENTIONED_WITH"}, calls[0].Params["types"])
}

func TestCypherAccessorNeighborsNilTypesBecomesEmptySlice(t *testing.T) {
	client := NewMemoryClient()
	client.PushReadResult(Result{})

	accessor := NewCypherAccessor(client, nil)

	_, err := accessor.Neighbors(context.Background(), "2244", nil)
	require.NoError(t, err)

	calls := client.ReadCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{}, calls[0].Params["types"])
}

func TestCypherAccessorRelationshipTypes(t *testing.T) {
	client := NewMemoryClient()
	client.PushReadResult(Result{Records: []Record{
		{"relationshipType": "TREATS"},
		{"relationshipType": "ASSOCIATED_WITH"},
		{"relationshipType": "TARGETS"},
	}})

	accessor := NewCypherAccessor(client, nil)

	types, err := accessor.RelationshipTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ASSOCIATED_WITH", "TARGETS", "TREATS"}, types)
}

func TestMemoryAccessorRoundTrip(t *testing.T) {
	weight := 0.8
	accessor := NewMemoryAccessor().
		AddNode("a", []string{"Molecule"}, map[string]any{"name": "a"}).
		AddNode("b", []string{"Protein"}, nil).
		AddEdge("a", "b", "TARGETS", &weight)

	node, err := accessor.GetNode(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, node.HasLabel("Molecule"))
	assert.False(t, node.HasLabel("Protein"))

	_, err = accessor.GetNode(context.Background(), "missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)

	neighbors, err := accessor.Neighbors(context.Background(), "a", nil)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "b", neighbors[0].Node.ID)

	filtered, err := accessor.Neighbors(context.Background(), "a", []string{"TREATS"})
	require.NoError(t, err)
	assert.Empty(t, filtered)

	types, err := accessor.RelationshipTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"TARGETS"}, types)
}
