package pathway

// ranker assigns relevance scores to paths. The score function is pure, so
// the total order produced downstream is deterministic for identical inputs.
type ranker struct {
	mode ScoreMode
}

func newRanker(mode ScoreMode) ranker {
	return ranker{mode: mode}
}

// Score returns the path's relevance and whether the path survives ranking.
// A zero-weight edge invalidates the whole path in every mode: a
// zero-confidence link means the chain carries no evidence.
func (r ranker) Score(p Path) (float64, bool) {
	product := 1.0
	for _, edge := range p.Edges {
		w := 1.0
		if edge.Weight != nil {
			w = *edge.Weight
		}
		if w == 0 {
			return 0, false
		}
		product *= w
	}

	switch r.mode {
	case ScoreShortestFirst:
		if p.Length() == 0 {
			return product, true
		}
		return product / float64(p.Length()), true
	case ScoreUnweightedCount:
		return 1.0, true
	default:
		return product, true
	}
}
