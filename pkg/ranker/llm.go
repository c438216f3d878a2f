package ranker

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/agentcore/pkg/model"
)

// maxExtractionRetries bounds how many times the ranker re-asks the model
// to produce scores in the requested shape. The output depends on the
// conversation, not elapsed time, so this is a count, not a backoff — a
// model that cannot follow the schema on the first try and five re-asks
// has a problem a seventh attempt will not fix.
const maxExtractionRetries = 5

// LLMRanker scores candidates with one structured-output model call per
// ranking request, re-asked up to maxExtractionRetries times when the
// output cannot be decoded.
type LLMRanker struct {
	mediator model.ToolMediator
}

// NewLLMRanker creates a ranker backed by the given mediator.
func NewLLMRanker(mediator model.ToolMediator) *LLMRanker {
	return &LLMRanker{mediator: mediator}
}

var _ Ranker = (*LLMRanker)(nil)

// Rank asks the model for a name → score map over candidates. Scores the
// model omits default to zero; extraction is retried with a schema
// reminder when the output cannot be decoded.
func (r *LLMRanker) Rank(ctx context.Context, description, freeFormText string, candidates []Candidate) (Rankings, error) {
	if len(candidates) == 0 {
		return Rankings{Description: description}, nil
	}

	prompt := buildRankingPrompt(description, freeFormText, candidates)
	interactionID := "rank:" + description

	var scores map[string]float64
	var lastErr error
	for attempt := 0; attempt <= maxExtractionRetries; attempt++ {
		res, err := r.mediator.TransformIfPossible(ctx, nil,
			func(any) string { return prompt }, interactionID, &scores)
		if err != nil {
			return Rankings{}, fmt.Errorf("ranking %s failed: %w", description, err)
		}
		if res.OK {
			lastErr = nil
			break
		}
		lastErr = fmt.Errorf("ranking output not decodable: %s", res.Reason)
		prompt = buildRankingPrompt(description, freeFormText, candidates) + "\n\n" + schemaReminder
	}
	if lastErr != nil {
		return Rankings{}, fmt.Errorf("ranking %s failed after %d extraction retries: %w",
			description, maxExtractionRetries, lastErr)
	}

	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{Candidate: c, Score: scores[c.Name]}
	}
	return sortRanked(description, ranked), nil
}

const schemaReminder = `Your previous response was not a valid JSON object. ` +
	`Respond with ONLY a JSON object mapping each candidate name to a score between 0 and 1.`

func buildRankingPrompt(description, freeFormText string, candidates []Candidate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Score how well each %s matches the user's request.\n\n", description)
	fmt.Fprintf(&sb, "User request: %s\n\nCandidates:\n", freeFormText)
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s: %s\n", c.Name, c.Description)
	}
	sb.WriteString("\nRespond with ONLY a JSON object mapping each candidate name to a score between 0 and 1.")
	return sb.String()
}
