// internal/matching/rank.go
package matching

import "sort"

// rankResults orders scored candidates by the strict total order:
// score desc, then rating desc, then completed jobs desc, then
// provider id asc. The final key makes the order deterministic, which
// support relies on when answering "why didn't provider X show up".
func rankResults(results []MatchingResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Provider.Rating != b.Provider.Rating {
			return a.Provider.Rating > b.Provider.Rating
		}
		if a.Provider.CompletedJobs != b.Provider.CompletedJobs {
			return a.Provider.CompletedJobs > b.Provider.CompletedJobs
		}
		return a.Provider.ID < b.Provider.ID
	})
}

// truncate caps the result list at max. max == 0 yields an empty,
// non-nil slice so callers can always range and marshal it.
func truncate(results []MatchingResult, max int) []MatchingResult {
	if max <= 0 {
		return []MatchingResult{}
	}
	if len(results) > max {
		return results[:max]
	}
	return results
}
