package events

// ProcessCreatedPayload is the payload for process.created.
type ProcessCreatedPayload struct {
	AgentName string `json:"agent_name"`
}

// ReadyToPlanPayload is the payload for process.ready_to_plan. Conditions
// holds the evaluated WorldState as name -> "TRUE"/"FALSE"/"UNKNOWN".
type ReadyToPlanPayload struct {
	Conditions map[string]string `json:"conditions"`
}

// PlanFormulatedPayload is the payload for process.plan_formulated.
type PlanFormulatedPayload struct {
	GoalName    string   `json:"goal_name"`
	ActionNames []string `json:"action_names"`
	TotalCost   float64  `json:"total_cost"`
}

// ActionStartPayload is the payload for action.start.
type ActionStartPayload struct {
	ActionName string `json:"action_name"`
}

// ActionFinishPayload is the payload for action.finish.
type ActionFinishPayload struct {
	ActionName string `json:"action_name"`
	Outcome    string `json:"outcome"` // "value", "binding", "awaitable", "error"
	Error      string `json:"error,omitempty"`
}

// ObjectAddedPayload is the payload for blackboard.object_added.
type ObjectAddedPayload struct {
	TypeName string `json:"type_name"`
}

// ObjectBoundPayload is the payload for blackboard.object_bound.
type ObjectBoundPayload struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
}

// LlmRequestPayload is the payload for llm.request.
type LlmRequestPayload struct {
	InteractionID string `json:"interaction_id"`
	Model         string `json:"model"`
	Input         string `json:"input"`
}

// LlmResponsePayload is the payload for llm.response.
type LlmResponsePayload struct {
	InteractionID string     `json:"interaction_id"`
	Output        string     `json:"output"`
	DurationMs    int64      `json:"duration_ms"`
	Usage         TokenUsage `json:"usage"`
}

// TokenUsage mirrors the usage accounting attributed to an AgentProcess.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ToolCallRequestPayload is the payload for tool.call_request.
type ToolCallRequestPayload struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCallResponsePayload is the payload for tool.call_response.
type ToolCallResponsePayload struct {
	Name       string `json:"name"`
	Result     string `json:"result"`
	IsError    bool   `json:"is_error"`
	DurationMs int64  `json:"duration_ms"`
}

// ProgressUpdatePayload is the payload for process.progress_update.
type ProgressUpdatePayload struct {
	Label   string `json:"label"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// ProcessCompletedPayload is the payload for process.completed.
type ProcessCompletedPayload struct {
	DurationMs int64 `json:"duration_ms"`
}

// ProcessFailedPayload is the payload for process.failed.
type ProcessFailedPayload struct {
	Reason string `json:"reason"`
}

// RankingChoiceRequestPayload is the payload for ranking.choice_request.
type RankingChoiceRequestPayload struct {
	Description string   `json:"description"`
	Candidates  []string `json:"candidates"`
}

// RankingChoiceMadePayload is the payload for ranking.choice_made.
type RankingChoiceMadePayload struct {
	Chosen string  `json:"chosen"`
	Score  float64 `json:"score"`
}

// RankingChoiceNotMadePayload is the payload for ranking.choice_not_made.
type RankingChoiceNotMadePayload struct {
	TopScore float64 `json:"top_score"`
	CutOff   float64 `json:"cut_off"`
	Reason   string  `json:"reason"`
}

// DynamicAgentCreatedPayload is the payload for
// autonomy.dynamic_agent_created.
type DynamicAgentCreatedPayload struct {
	AgentName   string   `json:"agent_name"`
	GoalName    string   `json:"goal_name"`
	ActionNames []string `json:"action_names"`
}
