// Package events defines the process event envelope and an in-process
// publish/subscribe bus. A process emits one Event per well-defined point
// in its plan/act/replan loop; consumers include loggers, the
// HTTP API's live-tail endpoint, and pkg/wsevents' WebSocket hub.
package events

import "time"

// Event types emitted by a ProcessExecutor. Every process emits these in
// the order the state transitions they describe actually occur — emission
// must never reorder relative to blackboard/action state.
const (
	TypeProcessCreated       = "process.created"
	TypeReadyToPlan          = "process.ready_to_plan"
	TypePlanFormulated       = "process.plan_formulated"
	TypeActionStart          = "action.start"
	TypeActionFinish         = "action.finish"
	TypeObjectAdded          = "blackboard.object_added"
	TypeObjectBound          = "blackboard.object_bound"
	TypeLlmRequest           = "llm.request"
	TypeLlmResponse          = "llm.response"
	TypeToolCallRequest      = "tool.call_request"
	TypeToolCallResponse     = "tool.call_response"
	TypeProgressUpdate       = "process.progress_update"
	TypeProcessCompleted     = "process.completed"
	TypeProcessFailed        = "process.failed"
	TypeRankingChoiceRequest = "ranking.choice_request"
	TypeRankingChoiceMade    = "ranking.choice_made"
	TypeRankingChoiceNotMade = "ranking.choice_not_made"
	TypeDynamicAgentCreated  = "autonomy.dynamic_agent_created"
)

// Event is the common envelope carried by every published event.
// Payload holds a type-specific struct from payloads.go.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ProcessID string    `json:"process_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// ProcessChannel returns the bus channel name for a specific process's
// events — the unit of subscription for both the in-process Bus and
// pkg/wsevents' Hub.
func ProcessChannel(processID string) string {
	return "process:" + processID
}
