package autonomy

import (
	"fmt"

	"github.com/codeready-toolchain/agentcore/pkg/ranker"
)

// NoGoalFoundError reports that ranking completed but no goal cleared the
// confidence cut-off for the given intent.
type NoGoalFoundError struct {
	Intent   string
	Rankings ranker.Rankings
}

func (e *NoGoalFoundError) Error() string {
	return fmt.Sprintf("no goal found for intent %q", e.Intent)
}

// GoalNotApprovedError reports that the goal approver rejected the
// top-ranked goal.
type GoalNotApprovedError struct {
	Intent   string
	Rankings ranker.Rankings
	Reason   string
}

func (e *GoalNotApprovedError) Error() string {
	return fmt.Sprintf("goal for intent %q not approved: %s", e.Intent, e.Reason)
}

// NoAgentFoundError reports that ranking completed but no agent cleared
// the confidence cut-off for the given intent.
type NoAgentFoundError struct {
	Intent   string
	Rankings ranker.Rankings
}

func (e *NoAgentFoundError) Error() string {
	return fmt.Sprintf("no agent found for intent %q", e.Intent)
}
