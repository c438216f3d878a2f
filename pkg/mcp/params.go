package mcp

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tool arguments arrive from the model as free-form text inside a
// ToolCall. ParseActionInput turns that text into the parameter map the
// MCP SDK expects, trying the strictest interpretation first:
//
//  1. JSON object → used directly
//  2. JSON scalar/array → wrapped as {"input": value}
//  3. YAML with nested structure (lists, nested maps) → map
//  4. "key: value" / "key=value" pairs, comma or newline separated
//  5. anything else → {"input": raw string}
//
// Empty input yields an empty map, for tools that take no parameters.
func ParseActionInput(input string) (map[string]any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return map[string]any{}, nil
	}

	for _, parse := range []func(string) (map[string]any, bool){
		parseJSONInput,
		parseYAMLInput,
		parseKeyValueInput,
	} {
		if args, ok := parse(input); ok {
			return args, nil
		}
	}

	return map[string]any{"input": input}, nil
}

// parseJSONInput accepts any valid JSON document. Objects become the
// parameter map directly; scalars, arrays, booleans, and null are
// wrapped under "input" so a tool can still receive them.
func parseJSONInput(input string) (map[string]any, bool) {
	if !json.Valid([]byte(input)) {
		return nil, false
	}
	var raw any
	if err := json.Unmarshal([]byte(input), &raw); err != nil {
		return nil, false
	}
	if args, ok := raw.(map[string]any); ok {
		return args, true
	}
	return map[string]any{"input": raw}, true
}

// parseYAMLInput accepts YAML only when it carries real structure — a
// list or nested map value. Flat "key: value" lines are left for the
// key-value parser so plain prose that happens to contain a colon does
// not get misread as YAML.
func parseYAMLInput(input string) (map[string]any, bool) {
	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(input), &parsed); err != nil || len(parsed) == 0 {
		return nil, false
	}
	for _, value := range parsed {
		switch value.(type) {
		case []any, map[string]any:
			return parsed, true
		}
	}
	return nil, false
}

// parseKeyValueInput accepts "key: value" or "key=value" pairs separated
// by commas or newlines. All pairs must parse or the whole input is
// rejected — a half-structured read is worse than the raw-string
// fallback. Values containing commas mis-split here and land in that
// fallback too, which loses structure but never data.
func parseKeyValueInput(input string) (map[string]any, bool) {
	args := make(map[string]any)
	for _, part := range strings.Split(strings.ReplaceAll(input, "\n", ","), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := splitPair(part)
		if !ok {
			return nil, false
		}
		args[key] = coerceValue(value)
	}
	if len(args) == 0 {
		return nil, false
	}
	return args, true
}

// splitPair splits one "key: value" or "key=value" fragment. Keys must
// be simple identifiers — no spaces, not empty.
func splitPair(part string) (key, value string, ok bool) {
	for _, sep := range []string{":", "="} {
		idx := strings.Index(part, sep)
		if idx <= 0 {
			continue
		}
		key = strings.TrimSpace(part[:idx])
		if key == "" || strings.Contains(key, " ") {
			continue
		}
		return key, strings.TrimSpace(part[idx+1:]), true
	}
	return "", "", false
}

// coerceValue converts a key-value string into the Go type the tool most
// likely wants: booleans, null, integers, then floats, falling back to
// the trimmed string. NaN and ±Inf stay strings — they are not valid
// JSON and would fail at the MCP boundary.
func coerceValue(s string) any {
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null", "none":
		return nil
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}
