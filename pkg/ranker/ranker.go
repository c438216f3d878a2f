// Package ranker scores candidates (goals, agents) against free-form user
// text. Autonomy applies confidence cut-offs to the top-ranked candidate
// to decide whether to proceed.
package ranker

import (
	"context"
	"sort"
)

// Candidate is one rankable item. Name must be unique within a ranking
// request; Description is what the ranker scores against the user text.
type Candidate struct {
	Name        string
	Description string
}

// Ranked pairs a candidate with its score in [0, 1].
type Ranked struct {
	Candidate Candidate
	Score     float64
}

// Rankings is the scored candidate list, sorted by descending score (ties
// broken by name for determinism).
type Rankings struct {
	Description string
	Ranked      []Ranked
}

// Top returns the best-scoring candidate, if any.
func (r Rankings) Top() (Ranked, bool) {
	if len(r.Ranked) == 0 {
		return Ranked{}, false
	}
	return r.Ranked[0], true
}

// Names returns candidate names in rank order, for event payloads.
func (r Rankings) Names() []string {
	names := make([]string, len(r.Ranked))
	for i, ranked := range r.Ranked {
		names[i] = ranked.Candidate.Name
	}
	return names
}

// Ranker scores candidates against free-form text. description says what
// kind of thing is being ranked ("goal", "agent") so an LLM-backed ranker
// can phrase its prompt.
type Ranker interface {
	Rank(ctx context.Context, description, freeFormText string, candidates []Candidate) (Rankings, error)
}

// sortRanked orders by descending score, then by name, clamping scores
// into [0, 1].
func sortRanked(description string, ranked []Ranked) Rankings {
	for i := range ranked {
		if ranked[i].Score < 0 {
			ranked[i].Score = 0
		}
		if ranked[i].Score > 1 {
			ranked[i].Score = 1
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Candidate.Name < ranked[j].Candidate.Name
	})
	return Rankings{Description: description, Ranked: ranked}
}
