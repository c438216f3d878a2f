package process

import (
	"fmt"

	"github.com/codeready-toolchain/agentcore/pkg/blackboard"
	"github.com/codeready-toolchain/agentcore/pkg/model"
)

// ConfirmationRequest suspends a process until a human confirms or rejects
// a proposed step. Returned from an action via model.AwaitableOutcome.
type ConfirmationRequest struct {
	RequestID string
	Message   string
	// Payload is the value written to the blackboard when the confirmation
	// is accepted.
	Payload any
}

var _ model.Awaitable = ConfirmationRequest{}

func (c ConfirmationRequest) ID() string   { return c.RequestID }
func (c ConfirmationRequest) Kind() string { return "confirmation" }

// HandleResponse applies a ConfirmationResponse. An accepted confirmation
// appends the confirmed payload (the response's payload wins when set);
// a rejection appends the rejection so conditions can react to it.
func (c ConfirmationRequest) HandleResponse(bb *blackboard.Blackboard, response any) error {
	resp, ok := response.(ConfirmationResponse)
	if !ok {
		return fmt.Errorf("expected ConfirmationResponse, got %T", response)
	}
	if resp.Accepted {
		payload := resp.Payload
		if payload == nil {
			payload = c.Payload
		}
		if payload != nil {
			bb.Append(payload)
		}
		bb.Append(resp)
		return nil
	}
	bb.Append(resp)
	return nil
}

// ConfirmationResponse is the external answer to a ConfirmationRequest.
type ConfirmationResponse struct {
	RequestID string
	Accepted  bool
	Payload   any
}

// FormRequest suspends a process until structured field values are
// supplied (e.g. a chat front-end rendering a form).
type FormRequest struct {
	RequestID string
	Title     string
	Fields    []FormField
}

// FormField describes one requested input.
type FormField struct {
	Name     string
	Label    string
	Required bool
}

var _ model.Awaitable = FormRequest{}

func (f FormRequest) ID() string   { return f.RequestID }
func (f FormRequest) Kind() string { return "form" }

// HandleResponse validates required fields and appends the submission.
func (f FormRequest) HandleResponse(bb *blackboard.Blackboard, response any) error {
	resp, ok := response.(FormResponse)
	if !ok {
		return fmt.Errorf("expected FormResponse, got %T", response)
	}
	for _, field := range f.Fields {
		if field.Required {
			if v, present := resp.Values[field.Name]; !present || v == "" {
				return fmt.Errorf("required form field %q missing", field.Name)
			}
		}
	}
	bb.Append(resp)
	return nil
}

// FormResponse is the external answer to a FormRequest.
type FormResponse struct {
	RequestID string
	Values    map[string]string
}
