package pathway

import (
	"context"

	"github.com/athena-graph/athena/internal/graph"
)

// enumerator performs the bounded-depth depth-first exploration for a single
// source node. Neighbor lookups are memoized for the lifetime of the request
// only; nothing is cached across requests.
type enumerator struct {
	engine *Engine
	req    Request
	memo   map[string][]graph.Neighbor
}

func newEnumerator(engine *Engine, req Request) *enumerator {
	return &enumerator{
		engine: engine,
		req:    req,
		memo:   make(map[string][]graph.Neighbor),
	}
}

// enumerate returns every path from source to a node carrying the target
// label within the hop bound. No node repeats within a path, so traversal
// terminates on cyclic graphs.
func (e *enumerator) enumerate(ctx context.Context, source graph.Node) ([]Path, error) {
	var found []Path

	if e.req.IncludeZeroHop && source.HasLabel(e.req.TargetLabel) {
		found = append(found, Path{Nodes: []graph.Node{source}})
	}

	onPath := map[string]struct{}{source.ID: {}}
	path := Path{Nodes: []graph.Node{source}}

	if err := e.explore(ctx, source, path, onPath, &found); err != nil {
		return nil, err
	}
	return found, nil
}

func (e *enumerator) explore(ctx context.Context, current graph.Node, path Path, onPath map[string]struct{}, found *[]Path) error {
	if path.Length() >= e.req.MaxHops {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	neighbors, err := e.neighbors(ctx, current.ID)
	if err != nil {
		return err
	}

	for _, n := range neighbors {
		if _, visited := onPath[n.Node.ID]; visited {
			continue
		}

		next := Path{
			Nodes: append(append([]graph.Node(nil), path.Nodes...), n.Node),
			Edges: append(append([]graph.Edge(nil), path.Edges...), n.Edge),
		}

		if n.Node.HasLabel(e.req.TargetLabel) {
			*found = append(*found, next)
		}

		onPath[n.Node.ID] = struct{}{}
		if err := e.explore(ctx, n.Node, next, onPath, found); err != nil {
			return err
		}
		delete(onPath, n.Node.ID)
	}

	return nil
}

func (e *enumerator) neighbors(ctx context.Context, id string) ([]graph.Neighbor, error) {
	if cached, ok := e.memo[id]; ok {
		return cached, nil
	}
	neighbors, err := e.engine.neighborsWithRetry(ctx, id, e.req.RelTypes)
	if err != nil {
		return nil, err
	}
	e.memo[id] = neighbors
	return neighbors, nil
}
