package llmtool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/codeready-toolchain/agentcore/pkg/events"
	"github.com/codeready-toolchain/agentcore/pkg/model"
)

const (
	// DefaultMaxAttempts bounds retries for transient provider errors.
	// Structured-output validation failures are never retried.
	DefaultMaxAttempts = 3

	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 10 * time.Second
)

// ProcessContext binds a Mediator to one AgentProcess: event routing,
// usage attribution, budget enforcement, and pacing. The executor fills
// this in when it creates the process's mediator.
type ProcessContext struct {
	ProcessID string
	Bus       *events.Bus

	// ShowPrompts / ShowResponses gate whether prompt and response text is
	// included in emitted events.
	ShowPrompts   bool
	ShowResponses bool

	// AddUsage attributes token usage and cost to the owning process.
	// May be nil (e.g. in tests that only exercise transforms).
	AddUsage func(usage events.TokenUsage, cost float64)

	// CheckBudget is consulted before each LLM call. A non-nil return
	// aborts the call without invoking the provider.
	CheckBudget func() error

	// ToolDelay and OperationDelay pace external calls. Zero disables
	// pacing.
	ToolDelay      time.Duration
	OperationDelay time.Duration
}

// Mediator wraps an LLMClient and a ToolExecutor for a single process. All
// retries, events, and usage accounting happen here; actions and the
// ranker never talk to the provider directly.
type Mediator struct {
	llm   LLMClient
	tools ToolExecutor
	proc  ProcessContext

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

var _ model.ToolMediator = (*Mediator)(nil)

// Option customizes a Mediator.
type Option func(*Mediator)

// WithMaxAttempts overrides the transient-error retry bound.
func WithMaxAttempts(n int) Option {
	return func(m *Mediator) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// WithBackoff overrides the retry backoff window.
func WithBackoff(initial, max time.Duration) Option {
	return func(m *Mediator) {
		m.initialBackoff = initial
		m.maxBackoff = max
	}
}

// NewMediator creates a Mediator bound to one process. tools may be nil
// when the process's agent declares no tool groups.
func NewMediator(llm LLMClient, tools ToolExecutor, proc ProcessContext, opts ...Option) *Mediator {
	m := &Mediator{
		llm:            llm,
		tools:          tools,
		proc:           proc,
		maxAttempts:    DefaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateText runs a text generation with bounded retries for transient
// provider errors, emitting llm.request/llm.response events and
// attributing usage to the process.
func (m *Mediator) GenerateText(ctx context.Context, prompt string, interactionID string) (string, error) {
	resp, err := m.generate(ctx, &GenerateInput{
		InteractionID: interactionID,
		Prompt:        prompt,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Transform generates structured output from input and decodes it into
// out. Transport-level failures are retried like GenerateText; a response
// that cannot be decoded into out is a *ValidationError and is surfaced
// immediately — the model's output depends on the conversation, not on
// elapsed time, so re-sending the same prompt cannot help.
func (m *Mediator) Transform(ctx context.Context, input any, promptFn func(any) string, interactionID string, out any) error {
	text, err := m.GenerateText(ctx, promptFn(input), interactionID)
	if err != nil {
		return err
	}
	if err := decodeStructured(text, out); err != nil {
		return &ValidationError{InteractionID: interactionID, Err: err}
	}
	return nil
}

// TransformIfPossible is Transform with a soft failure mode: validation
// failures come back as an unset TransformResult rather than an error, so
// the calling action decides what to do. Transport errors still return err.
func (m *Mediator) TransformIfPossible(ctx context.Context, input any, promptFn func(any) string, interactionID string, out any) (model.TransformResult, error) {
	err := m.Transform(ctx, input, promptFn, interactionID, out)
	if err == nil {
		return model.TransformResult{OK: true}, nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return model.TransformResult{OK: false, Reason: ve.Err.Error()}, nil
	}
	return model.TransformResult{}, err
}

// CallTool executes a named tool through the process's ToolExecutor,
// emitting tool.call_request/tool.call_response events.
func (m *Mediator) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if m.tools == nil {
		return "", fmt.Errorf("no tool executor bound to process %s", m.proc.ProcessID)
	}
	if err := m.pace(ctx, m.proc.ToolDelay); err != nil {
		return "", err
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool arguments: %w", err)
	}

	m.publish(events.TypeToolCallRequest, events.ToolCallRequestPayload{
		Name:      name,
		Arguments: string(argsJSON),
	})

	start := time.Now()
	result, err := m.tools.Execute(ctx, ToolCall{
		ID:        uuid.NewString(),
		Name:      name,
		Arguments: string(argsJSON),
	})
	if err != nil {
		return "", fmt.Errorf("tool %q execution failed: %w", name, err)
	}

	m.publish(events.TypeToolCallResponse, events.ToolCallResponsePayload{
		Name:       name,
		Result:     result.Content,
		IsError:    result.IsError,
		DurationMs: time.Since(start).Milliseconds(),
	})

	if result.IsError {
		return "", fmt.Errorf("tool %q returned error: %s", name, result.Content)
	}
	return result.Content, nil
}

// ListTools returns the tool definitions available to this process, or nil
// when no executor is bound.
func (m *Mediator) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	if m.tools == nil {
		return nil, nil
	}
	return m.tools.ListTools(ctx)
}

// generate performs the retry loop around the LLM client. Only errors
// marked Transient are retried; everything else is permanent.
func (m *Mediator) generate(ctx context.Context, input *GenerateInput) (*LLMResponse, error) {
	if m.proc.CheckBudget != nil {
		if err := m.proc.CheckBudget(); err != nil {
			return nil, err
		}
	}
	if err := m.pace(ctx, m.proc.OperationDelay); err != nil {
		return nil, err
	}

	promptForEvent := ""
	if m.proc.ShowPrompts {
		promptForEvent = input.Prompt
	}
	m.publish(events.TypeLlmRequest, events.LlmRequestPayload{
		InteractionID: input.InteractionID,
		Model:         m.llm.Model(),
		Input:         promptForEvent,
	})

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.initialBackoff
	bo.MaxInterval = m.maxBackoff
	bo.MaxElapsedTime = 0 // bounded by attempt count, not wall time

	var resp *LLMResponse
	start := time.Now()
	err := backoff.Retry(func() error {
		var callErr error
		resp, callErr = m.llm.Generate(ctx, input)
		if callErr == nil {
			return nil
		}
		if IsTransient(callErr) {
			slog.Warn("transient LLM failure, will retry",
				"process_id", m.proc.ProcessID,
				"interaction_id", input.InteractionID,
				"error", callErr)
			return callErr
		}
		return backoff.Permanent(callErr)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(m.maxAttempts-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed for %s: %w", input.InteractionID, err)
	}

	if m.proc.AddUsage != nil {
		m.proc.AddUsage(resp.Usage, resp.Cost)
	}

	outputForEvent := ""
	if m.proc.ShowResponses {
		outputForEvent = resp.Text
	}
	m.publish(events.TypeLlmResponse, events.LlmResponsePayload{
		InteractionID: input.InteractionID,
		Output:        outputForEvent,
		DurationMs:    time.Since(start).Milliseconds(),
		Usage:         resp.Usage,
	})

	return resp, nil
}

func (m *Mediator) pace(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mediator) publish(eventType string, payload any) {
	if m.proc.Bus == nil {
		return
	}
	m.proc.Bus.Publish(events.ProcessChannel(m.proc.ProcessID), events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ProcessID: m.proc.ProcessID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// decodeStructured strips optional markdown code fences and decodes the
// remaining text as JSON into out.
func decodeStructured(text string, out any) error {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return fmt.Errorf("cannot decode model output as %T: %w", out, err)
	}
	return nil
}
