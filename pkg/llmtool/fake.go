package llmtool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/codeready-toolchain/agentcore/pkg/events"
)

// FakeLLM is the deterministic LLM used in test mode. Replies
// are matched by prompt substring, in registration order; unmatched
// prompts get a stable echo of the prompt's first line. No randomness, no
// wall-clock dependence — identical prompts produce identical responses,
// except that a Fail rule is consumed by the first prompt it matches.
type FakeLLM struct {
	mu      sync.Mutex
	rules   []fakeRule
	calls   []string
	perCall events.TokenUsage
	cost    float64
}

type fakeRule struct {
	substring string
	reply     string
	err       error
}

// NewFakeLLM creates a FakeLLM that charges 15 tokens (10 input, 5 output)
// and zero cost per call; WithUsage changes both.
func NewFakeLLM() *FakeLLM {
	return &FakeLLM{
		perCall: events.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}
}

// Reply registers a canned reply for prompts containing substring.
func (f *FakeLLM) Reply(substring, reply string) *FakeLLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, fakeRule{substring: substring, reply: reply})
	return f
}

// Fail registers an error for prompts containing substring. Wrap with
// Transient to exercise the retry path.
func (f *FakeLLM) Fail(substring string, err error) *FakeLLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, fakeRule{substring: substring, err: err})
	return f
}

// WithUsage sets the usage and cost attributed per call.
func (f *FakeLLM) WithUsage(usage events.TokenUsage, cost float64) *FakeLLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.perCall = usage
	f.cost = cost
	return f
}

// Generate implements LLMClient.
func (f *FakeLLM) Generate(_ context.Context, input *GenerateInput) (*LLMResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, input.Prompt)

	for i, rule := range f.rules {
		if strings.Contains(input.Prompt, rule.substring) {
			if rule.err != nil {
				// One-shot errors: consume the rule so a retry can succeed
				// against a later rule for the same substring.
				f.rules = append(f.rules[:i], f.rules[i+1:]...)
				return nil, rule.err
			}
			return &LLMResponse{Text: rule.reply, Usage: f.perCall, Cost: f.cost}, nil
		}
	}

	firstLine, _, _ := strings.Cut(input.Prompt, "\n")
	return &LLMResponse{
		Text:  fmt.Sprintf("fake response to: %s", firstLine),
		Usage: f.perCall,
		Cost:  f.cost,
	}, nil
}

// Model implements LLMClient.
func (f *FakeLLM) Model() string { return "fake-model" }

// Calls returns every prompt seen so far, in order.
func (f *FakeLLM) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// StubToolExecutor is a ToolExecutor with canned results, for agents whose
// tool groups are not backed by live MCP servers (tests, dry runs).
type StubToolExecutor struct {
	mu      sync.Mutex
	results map[string]string
	calls   []ToolCall
}

// NewStubToolExecutor creates a stub. results maps tool name to canned
// content; unknown tools return an IsError result.
func NewStubToolExecutor(results map[string]string) *StubToolExecutor {
	return &StubToolExecutor{results: results}
}

// Execute implements ToolExecutor.
func (s *StubToolExecutor) Execute(_ context.Context, call ToolCall) (*ToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)

	if content, ok := s.results[call.Name]; ok {
		return &ToolResult{CallID: call.ID, Name: call.Name, Content: content}, nil
	}
	return &ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: fmt.Sprintf("unknown tool: %s", call.Name),
		IsError: true,
	}, nil
}

// ListTools implements ToolExecutor.
func (s *StubToolExecutor) ListTools(_ context.Context) ([]ToolDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return nil, nil
	}
	tools := make([]ToolDefinition, 0, len(s.results))
	for name := range s.results {
		tools = append(tools, ToolDefinition{Name: name})
	}
	return tools, nil
}

// Close implements ToolExecutor.
func (s *StubToolExecutor) Close() error { return nil }

// Calls returns every tool call seen so far, in order.
func (s *StubToolExecutor) Calls() []ToolCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ToolCall(nil), s.calls...)
}
