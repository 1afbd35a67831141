package search

import "sort"

// fuse merges semantic and keyword hits by min-max normalised score.
// semanticWeight is in [0, 1]; the keyword share is its complement.
func fuse(semantic, keyword []Hit, semanticWeight float64, limit int) []Hit {
	keywordWeight := 1.0 - semanticWeight

	semanticScores := normalizeScores(semantic)
	keywordScores := normalizeScores(keyword)

	combined := make(map[string]float64, len(semantic)+len(keyword))
	order := make([]string, 0, len(semantic)+len(keyword))

	for _, h := range semantic {
		if _, seen := combined[h.ID]; !seen {
			order = append(order, h.ID)
		}
		combined[h.ID] = semanticScores[h.ID] * semanticWeight
	}
	for _, h := range keyword {
		if _, seen := combined[h.ID]; !seen {
			order = append(order, h.ID)
		}
		combined[h.ID] += keywordScores[h.ID] * keywordWeight
	}

	hits := make([]Hit, 0, len(order))
	for _, id := range order {
		hits = append(hits, Hit{ID: id, Score: combined[id]})
	}

	// stable keeps semantic order among ties
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// normalizeScores normalizes hit scores to 0-1 range
// Returns a map of ID -> normalized score
func normalizeScores(hits []Hit) map[string]float64 {
	if len(hits) == 0 {
		return make(map[string]float64)
	}

	minScore := hits[0].Score
	maxScore := hits[0].Score
	for _, h := range hits {
		if h.Score < minScore {
			minScore = h.Score
		}
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}

	normalized := make(map[string]float64, len(hits))
	scoreRange := maxScore - minScore

	if scoreRange == 0 {
		// All scores are the same - assign 1.0 to all
		for _, h := range hits {
			normalized[h.ID] = 1.0
		}
	} else {
		for _, h := range hits {
			normalized[h.ID] = (h.Score - minScore) / scoreRange
		}
	}

	return normalized
}
