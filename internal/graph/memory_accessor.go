package graph

import (
	"context"
	"sort"
	"sync"
)

// MemoryAccessor is an in-memory implementation of Accessor used for unit
// testing traversal logic and for local development without a graph database.
type MemoryAccessor struct {
	mu    sync.RWMutex
	nodes map[string]Node
	edges map[string][]Neighbor
	err   error
}

// NewMemoryAccessor creates an empty in-memory graph.
func NewMemoryAccessor() *MemoryAccessor {
	return &MemoryAccessor{
		nodes: make(map[string]Node),
		edges: make(map[string][]Neighbor),
	}
}

// WithError configures the accessor to fail every lookup with err, simulating
// an unreachable backend.
func (m *MemoryAccessor) WithError(err error) *MemoryAccessor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// AddNode registers a node. The first label is the node's category.
func (m *MemoryAccessor) AddNode(id string, labels []string, props map[string]any) *MemoryAccessor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[id] = Node{ID: id, Labels: labels, Properties: props}
	return m
}

// AddEdge registers a directed edge between two previously added nodes.
// A nil weight means the relationship carries no weight property.
func (m *MemoryAccessor) AddEdge(from, to, relType string, weight *float64) *MemoryAccessor {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.nodes[to]
	if !ok {
		target = Node{ID: to}
	}
	m.edges[from] = append(m.edges[from], Neighbor{
		Edge: Edge{From: from, To: to, Type: relType, Weight: weight},
		Node: target,
	})
	return m
}

func (m *MemoryAccessor) GetNode(_ context.Context, id string) (Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return Node{}, m.err
	}
	node, ok := m.nodes[id]
	if !ok {
		return Node{}, &NotFoundError{ID: id}
	}
	return node, nil
}

func (m *MemoryAccessor) Neighbors(_ context.Context, id string, relTypes []string) ([]Neighbor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	all := m.edges[id]
	if len(relTypes) == 0 {
		return append([]Neighbor(nil), all...), nil
	}

	allowed := make(map[string]struct{}, len(relTypes))
	for _, t := range relTypes {
		allowed[t] = struct{}{}
	}

	var out []Neighbor
	for _, n := range all {
		if _, ok := allowed[n.Edge.Type]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *MemoryAccessor) RelationshipTypes(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	seen := make(map[string]struct{})
	for _, neighbors := range m.edges {
		for _, n := range neighbors {
			seen[n.Edge.Type] = struct{}{}
		}
	}

	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types, nil
}
