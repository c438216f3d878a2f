package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionInput_Empty(t *testing.T) {
	result, err := ParseActionInput("")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, result)
}

func TestParseActionInput_Whitespace(t *testing.T) {
	result, err := ParseActionInput("   \n  ")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, result)
}

func TestParseActionInput_JSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]any
	}{
		{
			name:  "json object",
			input: `{"category": "politics", "limit": 10}`,
			expected: map[string]any{
				"category": "politics",
				"limit":    float64(10),
			},
		},
		{
			name:  "json object with nested",
			input: `{"filter": {"app": "newsfeed"}, "category": "world"}`,
			expected: map[string]any{
				"filter":   map[string]any{"app": "newsfeed"},
				"category": "world",
			},
		},
		{
			name:  "json array wraps in input",
			input: `["story-1", "story-2"]`,
			expected: map[string]any{
				"input": []any{"story-1", "story-2"},
			},
		},
		{
			name:  "json string wraps in input",
			input: `"hello world"`,
			expected: map[string]any{
				"input": "hello world",
			},
		},
		{
			name:  "json number wraps in input",
			input: `42`,
			expected: map[string]any{
				"input": float64(42),
			},
		},
		{
			name:  "json boolean wraps in input",
			input: `true`,
			expected: map[string]any{
				"input": true,
			},
		},
		{
			name:  "json false wraps in input",
			input: `false`,
			expected: map[string]any{
				"input": false,
			},
		},
		{
			name:  "json null wraps in input",
			input: `null`,
			expected: map[string]any{
				"input": nil,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseActionInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseActionInput_YAML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]any
	}{
		{
			name: "yaml with nested list",
			input: `sections:
  - politics
  - archive
label: app=newsfeed`,
			expected: map[string]any{
				"sections": []any{"politics", "archive"},
				"label":    "app=newsfeed",
			},
		},
		{
			name: "yaml with nested map",
			input: `selector:
  app: newsfeed
  env: world`,
			expected: map[string]any{
				"selector": map[string]any{
					"app": "newsfeed",
					"env": "world",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseActionInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseActionInput_KeyValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]any
	}{
		{
			name:  "colon separated",
			input: "category: politics",
			expected: map[string]any{
				"category": "politics",
			},
		},
		{
			name:  "equals separated",
			input: "category=politics",
			expected: map[string]any{
				"category": "politics",
			},
		},
		{
			name:  "comma separated multiple",
			input: "category: politics, limit: 10",
			expected: map[string]any{
				"category": "politics",
				"limit":    int64(10),
			},
		},
		{
			name:  "newline separated multiple",
			input: "category: politics\nlimit: 10",
			expected: map[string]any{
				"category": "politics",
				"limit":    int64(10),
			},
		},
		{
			name:  "mixed separators",
			input: "category: politics, verbose=true\nlimit: 5",
			expected: map[string]any{
				"category": "politics",
				"verbose":  true,
				"limit":    int64(5),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseActionInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseActionInput_RawString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]any
	}{
		{
			name:  "plain text",
			input: "find recent stories about the person",
			expected: map[string]any{
				"input": "find recent stories about the person",
			},
		},
		{
			name:  "single word",
			input: "politics",
			expected: map[string]any{
				"input": "politics",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseActionInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{name: "true", input: "true", expected: true},
		{name: "True", input: "True", expected: true},
		{name: "TRUE", input: "TRUE", expected: true},
		{name: "false", input: "false", expected: false},
		{name: "False", input: "False", expected: false},
		{name: "null", input: "null", expected: nil},
		{name: "none", input: "none", expected: nil},
		{name: "None", input: "None", expected: nil},
		{name: "integer", input: "42", expected: int64(42)},
		{name: "negative integer", input: "-5", expected: int64(-5)},
		{name: "float", input: "3.14", expected: 3.14},
		{name: "NaN stays string", input: "NaN", expected: "NaN"},
		{name: "Inf stays string", input: "Inf", expected: "Inf"},
		{name: "-Inf stays string", input: "-Inf", expected: "-Inf"},
		{name: "+Inf stays string", input: "+Inf", expected: "+Inf"},
		{name: "string", input: "hello", expected: "hello"},
		{name: "whitespace", input: "  hello  ", expected: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := coerceValue(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseActionInput_JSONPriority(t *testing.T) {
	// JSON with colon-separated values should parse as JSON, not key-value
	input := `{"key": "value"}`
	result, err := ParseActionInput(input)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"key": "value"}, result)
}

func TestParseActionInput_SimpleYAMLFallsToKeyValue(t *testing.T) {
	// Simple key: value without complex structures should be handled by
	// key-value parser, not YAML, to avoid false positives
	input := "category: politics"
	result, err := ParseActionInput(input)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"category": "politics"}, result)
}
