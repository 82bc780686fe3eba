package command

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxSuggestions bounds "did you mean" output.
const maxSuggestions = 3

// Suggest returns up to three candidates close to name, best first.
// Candidates containing name as a fuzzy subsequence ("hst" -> "history")
// rank ahead of candidates that are merely a few edits away ("hepl" ->
// "help").
func Suggest(name string, candidates []string) []string {
	if name == "" || len(candidates) == 0 {
		return nil
	}

	type scored struct {
		name  string
		tier  int
		score int
	}
	best := make(map[string]scored)

	for _, rank := range fuzzy.RankFindNormalizedFold(name, candidates) {
		best[rank.Target] = scored{name: rank.Target, tier: 0, score: rank.Distance}
	}

	limit := len(name)/2 + 1
	for _, c := range candidates {
		if _, ok := best[c]; ok {
			continue
		}
		if d := fuzzy.LevenshteinDistance(name, c); d <= limit {
			best[c] = scored{name: c, tier: 1, score: d}
		}
	}

	results := make([]scored, 0, len(best))
	for _, s := range best {
		results = append(results, s)
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.tier != b.tier {
			return a.tier < b.tier
		}
		if a.score != b.score {
			return a.score < b.score
		}
		return a.name < b.name
	})

	if len(results) > maxSuggestions {
		results = results[:maxSuggestions]
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.name
	}
	return out
}
