// Package llmtool mediates all LLM and tool interactions for agent
// processes. Every model call crosses this boundary so that retries, event
// emission, and usage attribution happen in exactly one place.
package llmtool

import (
	"context"
	"errors"
	"fmt"

	"github.com/codeready-toolchain/agentcore/pkg/events"
)

// GenerateInput carries a single LLM generation request.
type GenerateInput struct {
	InteractionID string
	Prompt        string
	Tools         []ToolDefinition
}

// LLMResponse is the provider-neutral result of a generation call.
type LLMResponse struct {
	Text  string
	Usage events.TokenUsage
	Cost  float64
}

// LLMClient is the opaque capability provider behind the mediator. It must
// be safe to invoke from many processes in parallel.
type LLMClient interface {
	Generate(ctx context.Context, input *GenerateInput) (*LLMResponse, error)
	Model() string
}

// ToolDefinition describes a callable tool exposed to the LLM.
type ToolDefinition struct {
	Name             string
	Description      string
	ParametersSchema string
}

// ToolCall is a request to execute a named tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult is the outcome of a tool call. Errors are returned as content
// with IsError set rather than as Go errors, so the caller can feed them
// back to the model.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// ToolExecutor executes tool calls against a backing tool provider (see
// pkg/mcp for the MCP-backed implementation).
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) (*ToolResult, error)
	ListTools(ctx context.Context) ([]ToolDefinition, error)
	Close() error
}

// transientError marks a provider failure as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return fmt.Sprintf("transient: %v", e.err) }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err to mark it as a retryable provider failure. LLM
// clients wrap rate limits, timeouts, and 5xx-style failures this way;
// anything unwrapped is treated as permanent.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with Transient.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// ValidationError reports that the model produced output that could not be
// decoded into the requested type. Never retried — the model's output
// depends on the conversation, not on elapsed time.
type ValidationError struct {
	InteractionID string
	Err           error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("structured output validation failed for %s: %v", e.InteractionID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
