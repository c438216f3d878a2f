package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeready-toolchain/agentcore/pkg/config"
	"github.com/codeready-toolchain/agentcore/pkg/llmtool"
	"github.com/codeready-toolchain/agentcore/pkg/redact"
)

// Compile-time check that ToolExecutor implements llmtool.ToolExecutor.
var _ llmtool.ToolExecutor = (*ToolExecutor)(nil)

// ToolExecutor implements llmtool.ToolExecutor backed by real MCP
// servers. Created per-process by ClientFactory; the process's mediator
// routes every action tool call through it.
type ToolExecutor struct {
	client   *Client
	registry *config.MCPServerRegistry

	// Resolved list of server IDs this executor can access.
	serverIDs []string

	// Optional redaction service for stripping secrets from tool results.
	// nil means no redaction is applied.
	redaction *redact.Service
}

// NewToolExecutor creates a new executor for the given servers.
// redaction may be nil (redaction disabled).
func NewToolExecutor(
	client *Client,
	registry *config.MCPServerRegistry,
	serverIDs []string,
	redaction *redact.Service,
) *ToolExecutor {
	return &ToolExecutor{
		client:    client,
		registry:  registry,
		serverIDs: serverIDs,
		redaction: redaction,
	}
}

// Execute runs a tool call via MCP.
//
// Flow:
//  1. Normalize tool name (server__tool → server.tool)
//  2. Split and validate server.tool name
//  3. Check server is in allowed serverIDs
//  4. Parse Arguments string into map[string]any
//  5. Call Client.CallTool(ctx, serverID, toolName, params)
//  6. Convert MCP result to ToolResult
//  7. Apply data redaction (if a redaction service is configured)
//  8. Truncate for storage so events and records stay bounded
func (e *ToolExecutor) Execute(ctx context.Context, call llmtool.ToolCall) (*llmtool.ToolResult, error) {
	name := NormalizeToolName(call.Name)

	serverID, toolName, err := e.resolveToolCall(name)
	if err != nil {
		return &llmtool.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: err.Error(),
			IsError: true,
		}, nil // Return error as content, not as Go error (MCP convention)
	}

	params, err := ParseActionInput(call.Arguments)
	if err != nil {
		return &llmtool.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("Failed to parse tool arguments: %s", err),
			IsError: true,
		}, nil
	}

	result, err := e.client.CallTool(ctx, serverID, toolName, params)
	if err != nil {
		return &llmtool.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("MCP tool execution failed: %s", err),
			IsError: true,
		}, nil
	}

	content := extractTextContent(result)
	if e.redaction != nil {
		content = e.redaction.RedactToolResult(content, serverID)
	}
	content = TruncateForStorage(content)

	return &llmtool.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: content,
		IsError: result.IsError,
	}, nil
}

// ListTools returns all available tools from configured MCP servers.
// Tools are returned with server-prefixed names (e.g., "news-server.search").
func (e *ToolExecutor) ListTools(ctx context.Context) ([]llmtool.ToolDefinition, error) {
	var allTools []llmtool.ToolDefinition

	for _, serverID := range e.serverIDs {
		tools, err := e.client.ListTools(ctx, serverID)
		if err != nil {
			// Log error but continue — partial tools are better than none
			slog.Warn("failed to list tools from MCP server",
				"server", serverID, "error", err)
			continue
		}

		for _, tool := range tools {
			allTools = append(allTools, llmtool.ToolDefinition{
				Name:             fmt.Sprintf("%s.%s", serverID, tool.Name),
				Description:      tool.Description,
				ParametersSchema: marshalSchema(tool.InputSchema),
			})
		}
	}

	return allTools, nil
}

// Close releases resources (MCP transports, subprocesses).
func (e *ToolExecutor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// resolveToolCall validates a tool call against the executor's configuration.
func (e *ToolExecutor) resolveToolCall(name string) (serverID, toolName string, err error) {
	serverID, toolName, err = SplitToolName(name)
	if err != nil {
		return "", "", err
	}

	if !slices.Contains(e.serverIDs, serverID) {
		return "", "", fmt.Errorf(
			"MCP server %q is not available for this process. "+
				"Available servers: %s", serverID, strings.Join(e.serverIDs, ", "))
	}

	return serverID, toolName, nil
}

// NormalizeToolName converts "server__tool" (double-underscore encoding
// some backends require) to the canonical "server.tool" form.
func NormalizeToolName(name string) string {
	if strings.Contains(name, "__") && !strings.Contains(name, ".") {
		return strings.Replace(name, "__", ".", 1)
	}
	return name
}

// SplitToolName splits a canonical "server.tool" name.
func SplitToolName(name string) (serverID, toolName string, err error) {
	idx := strings.Index(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", fmt.Errorf(
			"invalid tool name %q: expected \"server.tool\" format", name)
	}
	return name[:idx], name[idx+1:], nil
}

// extractTextContent extracts text from MCP CallToolResult.
// Concatenates all TextContent items. Non-text content (images, embedded
// resources) is logged at debug level and skipped.
func extractTextContent(result *mcpsdk.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			parts = append(parts, tc.Text)
		} else {
			slog.Debug("MCP tool returned non-text content, skipping",
				"content_type", fmt.Sprintf("%T", c))
		}
	}
	return strings.Join(parts, "\n")
}

// marshalSchema serializes a tool's InputSchema to a JSON string.
func marshalSchema(schema any) string {
	if schema == nil {
		return ""
	}
	data, err := json.Marshal(schema)
	if err != nil {
		slog.Debug("failed to marshal tool input schema", "error", err)
		return ""
	}
	return string(data)
}
