package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCollectsAllErrors(t *testing.T) {
	dir := writeConfig(t, `
mcp_servers:
  broken-stdio:
    transport:
      type: stdio
  broken-http:
    transport:
      type: http

tool_groups:
  empty-group:
    servers: []
  dangling:
    servers: ["no-such-server"]

agents:
  incomplete:
    actions: []
    goals: []

defaults:
  goal_confidence_cut_off: 1.5
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)

	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.GreaterOrEqual(t, len(verrs.Errors), 6,
		"every problem must be reported in one pass: %v", verrs)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidatorRejectsBadTransportType(t *testing.T) {
	dir := writeConfig(t, `
mcp_servers:
  weird:
    transport:
      type: carrier-pigeon
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestValidatorRejectsUnknownPatternReferences(t *testing.T) {
	dir := writeConfig(t, `
mcp_servers:
  srv:
    transport:
      type: stdio
      command: ok
    data_redaction:
      enabled: true
      pattern_groups: ["nonexistent-group"]
      patterns: ["nonexistent-pattern"]
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)

	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs.Errors, 2)
}

func TestValidatorRejectsUncompilableUserPattern(t *testing.T) {
	dir := writeConfig(t, `
redaction_patterns:
  broken:
    pattern: '([unclosed'
    replacement: 'x'
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
}

func TestValidatorRejectsNegativeBudget(t *testing.T) {
	dir := writeConfig(t, `
agents:
  overdrawn:
    actions: ["a"]
    goals: ["g"]
    budget:
      max_actions: -1
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_actions")
}
