// Package graph provides access to the Athena knowledge graph: a Cypher-level
// client for the underlying Neo4j store and the narrow Accessor interface the
// pathway engine consumes.
package graph

import (
	"errors"
	"fmt"
)

// Node is a read-only view of a graph node materialized per request.
type Node struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties,omitempty"`
}

// HasLabel reports whether the node carries the given label.
func (n Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Edge is a directed, typed connection between two nodes. Weight is nil when
// the underlying relationship carries no weight property.
type Edge struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Type   string   `json:"type"`
	Weight *float64 `json:"weight,omitempty"`
}

// Neighbor pairs an outgoing edge with the node it leads to.
type Neighbor struct {
	Edge Edge
	Node Node
}

// ErrNotFound indicates a node id that does not exist in the graph. Callers
// use NotFoundError to learn which id was missing.
var ErrNotFound = errors.New("node not found")

// NotFoundError identifies the missing node id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
