package mcp

import (
	"context"

	"github.com/codeready-toolchain/agentcore/pkg/config"
	"github.com/codeready-toolchain/agentcore/pkg/llmtool"
	"github.com/codeready-toolchain/agentcore/pkg/redact"
)

// ClientFactory creates per-process Clients and ToolExecutors. It is the
// platform's ToolExecutorFactory: one executor (and its transports) per
// AgentProcess, closed when the process is released.
type ClientFactory struct {
	registry  *config.MCPServerRegistry
	redaction *redact.Service
}

// NewClientFactory creates a new factory.
// redaction may be nil (redaction disabled).
func NewClientFactory(registry *config.MCPServerRegistry, redaction *redact.Service) *ClientFactory {
	return &ClientFactory{registry: registry, redaction: redaction}
}

// CreateClient creates a new Client connected to the specified servers.
// The caller is responsible for calling Close() when done.
func (f *ClientFactory) CreateClient(ctx context.Context, serverIDs []string) (*Client, error) {
	client := newClient(f.registry)
	if err := client.Initialize(ctx, serverIDs); err != nil {
		_ = client.Close() // Clean up partial initialization
		return nil, err
	}
	return client, nil
}

// CreateToolExecutor creates a fully-wired ToolExecutor over the given
// servers. Closing the executor closes its client and transports.
func (f *ClientFactory) CreateToolExecutor(ctx context.Context, serverIDs []string) (llmtool.ToolExecutor, error) {
	client, err := f.CreateClient(ctx, serverIDs)
	if err != nil {
		return nil, err
	}
	return NewToolExecutor(client, f.registry, serverIDs, f.redaction), nil
}
