package ranker

import (
	"context"
	"hash/fnv"
)

// FakeRanker is a deterministic ranker for tests; a process's Test option
// does not select it.
// Unpinned candidates receive a stable pseudo-random score derived from
// (description, text, name), so plans stay reproducible across runs
// without every test having to pin every candidate.
type FakeRanker struct {
	pinned map[string]float64
}

// NewFakeRanker creates a FakeRanker with no pinned scores.
func NewFakeRanker() *FakeRanker {
	return &FakeRanker{pinned: make(map[string]float64)}
}

// Score pins a candidate name to a fixed score.
func (f *FakeRanker) Score(name string, score float64) *FakeRanker {
	f.pinned[name] = score
	return f
}

var _ Ranker = (*FakeRanker)(nil)

// Rank implements Ranker without any model call.
func (f *FakeRanker) Rank(_ context.Context, description, freeFormText string, candidates []Candidate) (Rankings, error) {
	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		score, ok := f.pinned[c.Name]
		if !ok {
			score = pseudoScore(description, freeFormText, c.Name)
		}
		ranked[i] = Ranked{Candidate: c, Score: score}
	}
	return sortRanked(description, ranked), nil
}

// pseudoScore hashes the inputs into [0, 1). FNV-1a keeps this cheap and
// platform-independent.
func pseudoScore(parts ...string) float64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return float64(h.Sum64()%10000) / 10000
}
