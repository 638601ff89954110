// internal/matching/reasons.go
package matching

import "sort"

// aggregate computes the overall score as a weighted linear
// combination of the sub-scores. Linear, not multiplicative: one weak
// dimension must not zero out an otherwise strong candidate, and every
// dimension's exact contribution stays attributable.
func aggregate(sub SubScores, w Weights) float64 {
	total := 0.0
	for _, d := range dimensions {
		total += w.get(d) * sub.get(d)
	}
	return clamp01(total)
}

type contribution struct {
	dim   Dimension
	value float64
}

// matchReasons derives the human-readable labels from the dominant
// contributions. A dimension qualifies when its weighted contribution
// reaches the threshold fraction of the total score and its sub-score
// clears the label's own gate. Purely explanatory: reason text can
// change without touching ranking.
func matchReasons(sub SubScores, total float64, w Weights, params ReasonParams) []string {
	if total <= 0 || params.MaxReasons <= 0 {
		return nil
	}

	var qualified []contribution
	for _, d := range dimensions {
		c := w.get(d) * sub.get(d)
		if c < params.ContributionThreshold*total {
			continue
		}
		rule, ok := params.Rules[d]
		if !ok || sub.get(d) < rule.MinSubScore {
			continue
		}
		qualified = append(qualified, contribution{dim: d, value: c})
	}

	// Descending by contribution; ties keep the canonical dimension
	// order so output is deterministic.
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].value > qualified[j].value
	})

	if len(qualified) > params.MaxReasons {
		qualified = qualified[:params.MaxReasons]
	}

	reasons := make([]string, 0, len(qualified))
	for _, q := range qualified {
		reasons = append(reasons, params.Rules[q.dim].Label)
	}
	return reasons
}
