// Package mcp connects agent processes to their tool groups over the
// Model Context Protocol: per-process client sessions, tool discovery,
// and tool execution with transport-level recovery.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeready-toolchain/agentcore/pkg/config"
	"github.com/codeready-toolchain/agentcore/pkg/version"
)

// serverConn is everything the client tracks for one MCP server: the SDK
// handles, the cached tool list, and the mutex serializing connect and
// reconnect attempts. session == nil means not (or no longer) connected.
type serverConn struct {
	connectMu sync.Mutex

	client  *mcpsdk.Client
	session *mcpsdk.ClientSession

	// tools is populated on first ListTools and cleared on reconnect. A
	// Client lives exactly as long as its AgentProcess, so the cache
	// needs no TTL.
	tools []*mcpsdk.Tool
}

// Client manages the MCP sessions backing one AgentProcess's tool
// groups. Safe for concurrent use: an action may fan out parallel tool
// calls against the same servers.
type Client struct {
	registry *config.MCPServerRegistry
	logger   *slog.Logger

	mu     sync.RWMutex
	conns  map[string]*serverConn
	failed map[string]string // serverID → last connect error
}

// newClient creates a Client with no connections yet.
func newClient(registry *config.MCPServerRegistry) *Client {
	return &Client{
		registry: registry,
		logger:   slog.Default(),
		conns:    make(map[string]*serverConn),
		failed:   make(map[string]string),
	}
}

// Initialize connects to every listed server. Servers that fail to
// connect are recorded (see FailedServers) rather than aborting the
// whole process — an agent with three tool groups should not lose all
// three because one server is down. The error return is reserved for a
// future "every server failed" signal; today it is always nil.
func (c *Client) Initialize(ctx context.Context, serverIDs []string) error {
	for _, serverID := range serverIDs {
		if err := c.connect(ctx, serverID); err != nil {
			c.mu.Lock()
			c.failed[serverID] = err.Error()
			c.mu.Unlock()
			c.logger.Warn("MCP server failed to initialize",
				"server", serverID, "error", err)
		}
	}
	return nil
}

// ensureConn returns the serverConn shell for serverID, creating it on
// first reference. The shell exists before any session does, so its
// connectMu can serialize the very first connect attempt too.
func (c *Client) ensureConn(serverID string) *serverConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.conns[serverID]
	if !ok {
		conn = &serverConn{}
		c.conns[serverID] = conn
	}
	return conn
}

// connect establishes the session for a single server. Safe to call
// concurrently and repeatedly; an already-connected server is a no-op.
func (c *Client) connect(ctx context.Context, serverID string) error {
	conn := c.ensureConn(serverID)
	conn.connectMu.Lock()
	defer conn.connectMu.Unlock()

	c.mu.RLock()
	connected := conn.session != nil
	c.mu.RUnlock()
	if connected {
		return nil
	}

	serverCfg, err := c.registry.Get(serverID)
	if err != nil {
		return fmt.Errorf("server %q not found in registry: %w", serverID, err)
	}

	transport, err := createTransport(serverCfg.Transport)
	if err != nil {
		return fmt.Errorf("failed to create transport for %q: %w", serverID, err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	sdkClient := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    version.AppName,
		Version: version.GitCommit,
	}, nil)

	session, err := sdkClient.Connect(connectCtx, transport, nil)
	if err != nil {
		// Close the transport if it can be closed so a failed handshake
		// does not leak a child process or socket.
		if closer, ok := transport.(io.Closer); ok {
			_ = closer.Close()
		}
		return fmt.Errorf("failed to connect to %q: %w", serverID, err)
	}

	c.mu.Lock()
	conn.client = sdkClient
	conn.session = session
	conn.tools = nil
	delete(c.failed, serverID)
	c.mu.Unlock()

	c.logger.Info("MCP server connected", "server", serverID)
	return nil
}

// sessionFor returns the live session for serverID, if any.
func (c *Client) sessionFor(serverID string) (*mcpsdk.ClientSession, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.conns[serverID]
	if !ok || conn.session == nil {
		return nil, false
	}
	return conn.session, true
}

// ListTools returns the server's tools, from cache when available.
func (c *Client) ListTools(ctx context.Context, serverID string) ([]*mcpsdk.Tool, error) {
	c.mu.RLock()
	conn, ok := c.conns[serverID]
	if ok && conn.tools != nil {
		cached := conn.tools
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	session, ok := c.sessionFor(serverID)
	if !ok {
		return nil, fmt.Errorf("no session for server %q", serverID)
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	result, err := session.ListTools(callCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("list tools from %q: %w", serverID, err)
	}

	// Cache a non-nil slice so a server with zero tools is still a cache
	// hit next time.
	tools := result.Tools
	if tools == nil {
		tools = []*mcpsdk.Tool{}
	}
	c.mu.Lock()
	if conn, ok := c.conns[serverID]; ok {
		conn.tools = tools
	}
	c.mu.Unlock()

	return tools, nil
}

// CallTool executes one tool call. A transport-level failure gets a
// jittered pause, a fresh session, and exactly one more attempt (see
// reconnectable); anything else goes straight back to the caller.
func (c *Client) CallTool(ctx context.Context, serverID, toolName string, args map[string]any) (*mcpsdk.CallToolResult, error) {
	params := &mcpsdk.CallToolParams{
		Name:      toolName,
		Arguments: args,
	}

	result, err := c.callOnce(ctx, serverID, params)
	if err == nil {
		return result, nil
	}
	if !reconnectable(err) {
		return nil, err
	}

	c.logger.Info("MCP call hit a transport failure, reconnecting",
		"server", serverID, "tool", toolName, "error", err)

	select {
	case <-time.After(retryDelay()):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := c.reconnect(ctx, serverID); err != nil {
		return nil, fmt.Errorf("session recreation failed for %q: %w", serverID, err)
	}

	result, err = c.callOnce(ctx, serverID, params)
	if err != nil {
		return nil, fmt.Errorf("retry failed for %q.%s: %w", serverID, toolName, err)
	}
	return result, nil
}

// callOnce performs a single CallTool attempt.
func (c *Client) callOnce(ctx context.Context, serverID string, params *mcpsdk.CallToolParams) (*mcpsdk.CallToolResult, error) {
	session, ok := c.sessionFor(serverID)
	if !ok {
		return nil, fmt.Errorf("no session for server %q", serverID)
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	return session.CallTool(callCtx, params)
}

// reconnect tears down a server's session and builds a fresh one. Two
// goroutines racing into reconnect cost at most one redundant handshake:
// the second tears down the first's fresh session and makes another,
// which is acceptable for something that only happens on broken
// transports.
func (c *Client) reconnect(ctx context.Context, serverID string) error {
	c.mu.Lock()
	if conn, ok := c.conns[serverID]; ok && conn.session != nil {
		_ = conn.session.Close()
		conn.session = nil
		conn.client = nil
		conn.tools = nil
	}
	c.mu.Unlock()

	reconnectCtx, cancel := context.WithTimeout(ctx, reconnectTimeout)
	defer cancel()

	return c.connect(reconnectCtx, serverID)
}

// Close shuts down every session and transport.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for serverID, conn := range c.conns {
		if conn.session == nil {
			continue
		}
		if err := conn.session.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close session %q: %w", serverID, err)
		}
	}

	c.conns = make(map[string]*serverConn)
	c.failed = make(map[string]string)
	return firstErr
}

// HasSession reports whether a server currently has a live session.
func (c *Client) HasSession(serverID string) bool {
	_, ok := c.sessionFor(serverID)
	return ok
}

// FailedServers returns the servers whose last connect attempt failed,
// with the error text. Initialize records failures here and carries on;
// nothing else in this package fails on a non-empty map.
func (c *Client) FailedServers() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.failed))
	for k, v := range c.failed {
		out[k] = v
	}
	return out
}
