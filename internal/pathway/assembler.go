package pathway

// assemble produces the final ordered result: paths sorted by the total
// order, deduplicated on their node-id sequence, and capped at limit.
// Two paths share a key when multiple relationship types connect the same
// node pair; the higher-scoring one sorts first and is kept.
func assemble(ranked []RankedPath, limit int) *Result {
	sortRanked(ranked)

	seen := make(map[string]struct{}, len(ranked))
	out := make([]RankedPath, 0, min(limit, len(ranked)))
	for _, p := range ranked {
		key := p.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}

	return &Result{Paths: out}
}

// NodeSummary is the compact node view used in API responses.
type NodeSummary struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Name  string `json:"name,omitempty"`
}

// PathSummary is the serializable form of a ranked path: node summaries in
// order, connected by the relationship types between them.
type PathSummary struct {
	Score         float64       `json:"score"`
	Length        int           `json:"length"`
	Nodes         []NodeSummary `json:"nodes"`
	Relationships []string      `json:"relationships"`
}

// Summarize maps a result into its response shape.
func Summarize(result *Result) []PathSummary {
	summaries := make([]PathSummary, 0, len(result.Paths))
	for _, p := range result.Paths {
		summary := PathSummary{
			Score:         p.Score,
			Length:        p.Length(),
			Nodes:         make([]NodeSummary, 0, len(p.Nodes)),
			Relationships: make([]string, 0, len(p.Edges)),
		}
		for _, n := range p.Nodes {
			ns := NodeSummary{ID: n.ID}
			if len(n.Labels) > 0 {
				ns.Label = n.Labels[0]
			}
			if name, ok := n.Properties["name"].(string); ok {
				ns.Name = name
			}
			summary.Nodes = append(summary.Nodes, ns)
		}
		for _, e := range p.Edges {
			summary.Relationships = append(summary.Relationships, e.Type)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
