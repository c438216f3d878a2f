package mcp

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// Failure handling for the per-process MCP client. A tool call that dies
// with the transport gets one fresh session and one more attempt;
// everything else is handed straight back to the mediator, which owns
// application-level retry policy. Keeping transport recovery down here
// and semantic retries up there means a broken pipe never burns one of
// the mediator's bounded attempts.

const (
	// connectTimeout bounds transport construction plus the MCP handshake
	// for a single server.
	connectTimeout = 30 * time.Second

	// callTimeout is the per-call deadline for CallTool and ListTools.
	// Set conservatively: some tools are legitimately slow. The
	// caller-supplied process context is the hard ceiling above this.
	callTimeout = 90 * time.Second

	// reconnectTimeout is the deadline for rebuilding a server session
	// after a transport failure.
	reconnectTimeout = 10 * time.Second

	// retryDelayMin/retryDelayMax bound the jittered pause before the
	// single post-reconnect retry.
	retryDelayMin = 250 * time.Millisecond
	retryDelayMax = 750 * time.Millisecond
)

// reconnectable reports whether err looks like a dead transport that a
// fresh session could cure. Cancellation, deadlines, and JSON-RPC
// protocol errors are not: a re-handshake cannot fix a request the
// server already understood and rejected, and a timed-out server is more
// likely slow than gone.
func reconnectable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return !netErr.Timeout()
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}

	var wireErr *jsonrpc.Error
	if errors.As(err, &wireErr) {
		return false
	}

	return hasConnectionFailureText(err)
}

// hasConnectionFailureText catches transport failures that surface as
// plain error strings (some transports do not wrap typed net errors).
func hasConnectionFailureText(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"connection closed",
		"no such host",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// retryDelay returns the jittered pause before the post-reconnect retry.
func retryDelay() time.Duration {
	return retryDelayMin + time.Duration(rand.Int64N(int64(retryDelayMax-retryDelayMin)))
}
