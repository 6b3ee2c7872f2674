package molecule

import (
	"context"
	"fmt"

	"github.com/athena-graph/athena/internal/graph"
)

// Suggestion is one treatment candidate for a disorder. Via is empty for a
// direct TREATS relationship and names the intermediate target otherwise.
type Suggestion struct {
	CID        int64   `json:"cid"`
	Name       string  `json:"name"`
	Via        string  `json:"via,omitempty"`
	Confidence float64 `json:"confidence"`
}

const resolveDisorderCypher = `
	MATCH (d:Disorder)
	WHERE toLower(d.name) = toLower($name)
	RETURN d.id AS id, d.name AS name
	LIMIT 1`

const directTreatmentsCypher = `
	MATCH (m:Molecule)-[r:TREATS]->(d:Disorder {id: $id})
	RETURN m.cid AS cid, m.name AS name, coalesce(r.confidence, 1.0) AS confidence
	ORDER BY confidence DESC, name
	LIMIT 10`

const indirectTreatmentsCypher = `
	MATCH (m:Molecule)-[:TARGETS]->(t:Target)-[a:ASSOCIATED_WITH]->(d:Disorder {id: $id})
	WHERE NOT (m)-[:TREATS]->(d)
	RETURN m.cid AS cid, m.name AS name, t.name AS via,
	       coalesce(a.confidence, 1.0) AS confidence
	ORDER BY confidence DESC, name
	LIMIT 10`

// SuggestTreatments returns ranked treatment candidates for the named
// disorder: molecules with a direct TREATS relationship first, then molecules
// reaching the disorder through a shared target. The second return value is
// false when the disorder is not in the graph.
func (r *Repository) SuggestTreatments(ctx context.Context, disorder string) ([]Suggestion, bool, error) {
	resolved, err := r.client.ExecuteRead(ctx, resolveDisorderCypher, map[string]any{"name": disorder})
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve disorder: %w", err)
	}
	if len(resolved.Records) == 0 {
		return nil, false, nil
	}
	disorderID := asString(resolved.Records[0]["id"])

	direct, err := r.client.ExecuteRead(ctx, directTreatmentsCypher, map[string]any{"id": disorderID})
	if err != nil {
		return nil, true, fmt.Errorf("failed to query direct treatments: %w", err)
	}

	indirect, err := r.client.ExecuteRead(ctx, indirectTreatmentsCypher, map[string]any{"id": disorderID})
	if err != nil {
		return nil, true, fmt.Errorf("failed to query indirect treatments: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(direct.Records)+len(indirect.Records))
	for _, record := range direct.Records {
		suggestions = append(suggestions, suggestionFromRecord(record))
	}
	for _, record := range indirect.Records {
		suggestions = append(suggestions, suggestionFromRecord(record))
	}
	return suggestions, true, nil
}

func suggestionFromRecord(record graph.Record) Suggestion {
	return Suggestion{
		CID:        asInt64(record["cid"]),
		Name:       asString(record["name"]),
		Via:        asString(record["via"]),
		Confidence: asFloat64(record["confidence"]),
	}
}
