package graph

import (
	"context"
	"sort"

	"github.com/athena-graph/athena/internal/circuitbreaker"
)

// Accessor is the narrow lookup contract the pathway engine consumes. It
// decouples traversal logic from the Cypher query language: any labeled-graph
// store that can answer these two lookups can back the engine.
type Accessor interface {
	// GetNode returns the node with the given id, or a *NotFoundError.
	GetNode(ctx context.Context, id string) (Node, error)
	// Neighbors returns the outgoing edges of the node together with the
	// nodes they lead to, filtered to the given relationship types
	// (empty = all).
	Neighbors(ctx context.Context, id string, relTypes []string) ([]Neighbor, error)
	// RelationshipTypes returns the set of relationship types known to the
	// store, sorted lexically.
	RelationshipTypes(ctx context.Context) ([]string, error)
}

const (
	getNodeCypher = `
		MATCH (n {id: $id})
		RETURN n.id AS id, labels(n) AS labels, properties(n) AS props
		LIMIT 1`

	neighborsCypher = `
		MATCH (s {id: $id})-[r]->(t)
		WHERE size($types) = 0 OR type(r) IN $types
		RETURN type(r) AS type, r.weight AS weight,
		       t.id AS id, labels(t) AS labels, properties(t) AS props
		ORDER BY t.id, type(r)`

	relationshipTypesCypher = `
		CALL db.relationshipTypes() YIELD relationshipType
		RETURN relationshipType`
)

// CypherAccessor implements Accessor on top of a Cypher-level Client,
// optionally routing every query through a circuit breaker.
type CypherAccessor struct {
	client  Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewCypherAccessor builds an accessor over the given client. The breaker may
// be nil, in which case queries run unprotected.
func NewCypherAccessor(client Client, breaker *circuitbreaker.CircuitBreaker) *CypherAccessor {
	return &CypherAccessor{client: client, breaker: breaker}
}

func (a *CypherAccessor) read(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	if a.breaker == nil {
		return a.client.ExecuteRead(ctx, cypher, params)
	}

	result, err := a.breaker.Execute(ctx, func() (interface{}, error) {
		return a.client.ExecuteRead(ctx, cypher, params)
	})
	if err != nil {
		return Result{}, circuitbreaker.WrapError(err, "graph")
	}
	return result.(Result), nil
}

// GetNode resolves a node by its id property.
func (a *CypherAccessor) GetNode(ctx context.Context, id string) (Node, error) {
	result, err := a.read(ctx, getNodeCypher, map[string]any{"id": id})
	if err != nil {
		return Node{}, err
	}
	if len(result.Records) == 0 {
		return Node{}, &NotFoundError{ID: id}
	}
	return nodeFromRecord(result.Records[0]), nil
}

// Neighbors lists outgoing edges of a node, optionally filtered by type.
func (a *CypherAccessor) Neighbors(ctx context.Context, id string, relTypes []string) ([]Neighbor, error) {
	if relTypes == nil {
		relTypes = []string{}
	}
	result, err := a.read(ctx, neighborsCypher, map[string]any{
		"id":    id,
		"types": relTypes,
	})
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(result.Records))
	for _, record := range result.Records {
		node := nodeFromRecord(record)
		neighbors = append(neighbors, Neighbor{
			Edge: Edge{
				From:   id,
				To:     node.ID,
				Type:   recordString(record, "type"),
				Weight: recordFloatPtr(record, "weight"),
			},
			Node: node,
		})
	}
	return neighbors, nil
}

// RelationshipTypes lists the relationship types present in the store.
func (a *CypherAccessor) RelationshipTypes(ctx context.Context) ([]string, error) {
	result, err := a.read(ctx, relationshipTypesCypher, map[string]any{})
	if err != nil {
		return nil, err
	}

	types := make([]string, 0, len(result.Records))
	for _, record := range result.Records {
		if t := recordString(record, "relationshipType"); t != "" {
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types, nil
}

func nodeFromRecord(record Record) Node {
	return Node{
		ID:         recordString(record, "id"),
		Labels:     recordStringSlice(record, "labels"),
		Properties: recordMap(record, "props"),
	}
}

func recordString(record Record, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}

func recordStringSlice(record Record, key string) []string {
	switch v := record[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func recordMap(record Record, key string) map[string]any {
	if v, ok := record[key].(map[string]any); ok {
		return v
	}
	return nil
}

// recordFloatPtr reads a numeric value, tolerating the integer types the Bolt
// protocol may deliver. Missing or non-numeric values yield nil.
func recordFloatPtr(record Record, key string) *float64 {
	switch v := record[key].(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	}
	return nil
}
