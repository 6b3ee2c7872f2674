// Package molecule implements the fixed-shape lookups over the knowledge
// graph: exact CID lookup, substring name search, and aggregate statistics.
package molecule

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/athena-graph/athena/internal/graph"
)

// ErrNotFound indicates no molecule with the requested CID exists.
var ErrNotFound = errors.New("molecule not found")

// searchLimit caps substring search results.
const searchLimit = 20

// Molecule is the compact search result row.
type Molecule struct {
	CID     int64  `json:"cid"`
	Name    string `json:"name"`
	Formula string `json:"formula,omitempty"`
	SMILES  string `json:"smiles,omitempty"`
}

// Stats aggregates over the molecule set.
type Stats struct {
	Molecules          int64   `json:"molecules"`
	AvgMolecularWeight float64 `json:"avg_molecular_weight"`
}

// Repository answers molecule queries against the graph client.
type Repository struct {
	client graph.Client
}

// NewRepository creates a molecule repository.
func NewRepository(client graph.Client) *Repository {
	return &Repository{client: client}
}

const getByCIDCypher = `
	MATCH (m:Molecule {cid: $cid})
	RETURN properties(m) AS props
	LIMIT 1`

// GetByCID returns the full property map of the molecule with the given
// PubChem compound id, or ErrNotFound.
func (r *Repository) GetByCID(ctx context.Context, cid int64) (map[string]any, error) {
	result, err := r.client.ExecuteRead(ctx, getByCIDCypher, map[string]any{"cid": cid})
	if err != nil {
		return nil, fmt.Errorf("failed to look up molecule %d: %w", cid, err)
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("%w: cid %d", ErrNotFound, cid)
	}
	props, _ := result.Records[0]["props"].(map[string]any)
	return props, nil
}

const searchCypher = `
	MATCH (m:Molecule)
	WHERE toLower(m.name) CONTAINS toLower($name)
	RETURN m.cid AS cid, m.name AS name, m.formula AS formula, m.smiles AS smiles
	ORDER BY m.name
	LIMIT $limit`

// SearchByName returns up to 20 molecules whose name contains the given
// substring, case-insensitively.
func (r *Repository) SearchByName(ctx context.Context, name string) ([]Molecule, error) {
	result, err := r.client.ExecuteRead(ctx, searchCypher, map[string]any{
		"name":  name,
		"limit": searchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search molecules: %w", err)
	}

	molecules := make([]Molecule, 0, len(result.Records))
	for _, record := range result.Records {
		molecules = append(molecules, Molecule{
			CID:     asInt64(record["cid"]),
			Name:    asString(record["name"]),
			Formula: asString(record["formula"]),
			SMILES:  asString(record["smiles"]),
		})
	}
	return molecules, nil
}

const statsCypher = `
	MATCH (m:Molecule)
	WITH count(m) AS total_count,
	     avg(toFloat(m.weight)) AS avg_weight
	RETURN total_count, avg_weight`

// GetStats returns the molecule count and the average molecular weight,
// rounded to two decimals. An empty graph yields zero for both.
func (r *Repository) GetStats(ctx context.Context) (Stats, error) {
	result, err := r.client.ExecuteRead(ctx, statsCypher, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	if len(result.Records) == 0 {
		return Stats{}, nil
	}

	record := result.Records[0]
	return Stats{
		Molecules:          asInt64(record["total_count"]),
		AvgMolecularWeight: math.Round(asFloat64(record["avg_weight"])*100) / 100,
	}, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
