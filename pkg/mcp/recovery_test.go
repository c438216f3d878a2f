package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/stretchr/testify/assert"
)

func TestReconnectable(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		reconnectable bool
	}{
		{
			name:          "nil error",
			err:           nil,
			reconnectable: false,
		},
		{
			name:          "context canceled",
			err:           context.Canceled,
			reconnectable: false,
		},
		{
			name:          "context deadline exceeded",
			err:           context.DeadlineExceeded,
			reconnectable: false,
		},
		{
			name:          "wrapped context canceled",
			err:           errors.Join(errors.New("call failed"), context.Canceled),
			reconnectable: false,
		},
		{
			name:          "io.EOF - connection",
			err:           io.EOF,
			reconnectable: true,
		},
		{
			name:          "io.ErrUnexpectedEOF",
			err:           io.ErrUnexpectedEOF,
			reconnectable: true,
		},
		{
			name:          "connection refused",
			err:           errors.New("dial tcp 127.0.0.1:8080: connection refused"),
			reconnectable: true,
		},
		{
			name:          "connection reset",
			err:           errors.New("read tcp: connection reset by peer"),
			reconnectable: true,
		},
		{
			name:          "broken pipe",
			err:           errors.New("write: broken pipe"),
			reconnectable: true,
		},
		{
			name:          "connection closed string (not sentinel)",
			err:           errors.New("use of closed network connection"),
			reconnectable: false, // errors.New creates a distinct error, not net.ErrClosed
		},
		{
			name:          "net.ErrClosed sentinel",
			err:           net.ErrClosed,
			reconnectable: true,
		},
		{
			name:          "wrapped net.ErrClosed",
			err:           fmt.Errorf("operation failed: %w", net.ErrClosed),
			reconnectable: true,
		},
		{
			name:          "MCP method not found (typed)",
			err:           &jsonrpc.Error{Code: jsonrpc.CodeMethodNotFound, Message: "method not found"},
			reconnectable: false,
		},
		{
			name:          "MCP invalid params (typed)",
			err:           &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: "invalid params"},
			reconnectable: false,
		},
		{
			name:          "wrapped MCP error",
			err:           fmt.Errorf("call failed: %w", &jsonrpc.Error{Code: jsonrpc.CodeInvalidRequest, Message: "invalid request"}),
			reconnectable: false,
		},
		{
			name:          "unknown error",
			err:           errors.New("something unexpected happened"),
			reconnectable: false,
		},
		{
			name:          "tool application error",
			err:           errors.New("search failed: upstream index unavailable"),
			reconnectable: false, // application-level failures are the model's problem, not the transport's
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reconnectable, reconnectable(tt.err))
		})
	}
}

// mockNetError implements net.Error for testing.
type mockNetError struct {
	msg     string
	timeout bool
}

func (e *mockNetError) Error() string   { return e.msg }
func (e *mockNetError) Timeout() bool   { return e.timeout }
func (e *mockNetError) Temporary() bool { return false }

// Ensure mockNetError implements net.Error at compile time.
var _ net.Error = (*mockNetError)(nil)

func TestReconnectable_NetError(t *testing.T) {
	// A network timeout is likely a slow server, not a dead transport —
	// reconnecting would only double the pain.
	assert.False(t, reconnectable(&mockNetError{msg: "i/o timeout", timeout: true}))
	assert.True(t, reconnectable(&mockNetError{msg: "connection refused", timeout: false}))
}

func TestRetryDelayWithinBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := retryDelay()
		assert.GreaterOrEqual(t, d, retryDelayMin)
		assert.Less(t, d, retryDelayMax)
	}
}
