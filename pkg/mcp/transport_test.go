package mcp

import (
	"net/http"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentcore/pkg/config"
)

func TestCreateTransport_Stdio(t *testing.T) {
	cfg := config.TransportConfig{
		Type:    config.TransportTypeStdio,
		Command: "npx",
		Args:    []string{"-y", "news-mcp-server@1.2.0"},
		Env:     map[string]string{"NEWS_DATA_DIR": "/var/lib/news"},
	}

	transport, err := createTransport(cfg)
	require.NoError(t, err)

	cmdTransport, ok := transport.(*mcpsdk.CommandTransport)
	require.True(t, ok)
	// exec.Command may resolve the full path, so check that Path contains the name
	assert.Contains(t, cmdTransport.Command.Path, "npx")
	assert.Contains(t, cmdTransport.Command.Args, "-y")
	assert.Contains(t, cmdTransport.Command.Args, "news-mcp-server@1.2.0")

	// Check env override is present
	found := false
	for _, e := range cmdTransport.Command.Env {
		if e == "NEWS_DATA_DIR=/var/lib/news" {
			found = true
			break
		}
	}
	assert.True(t, found, "expected NEWS_DATA_DIR env override in command environment")
}

func TestCreateTransport_Stdio_MissingCommand(t *testing.T) {
	cfg := config.TransportConfig{
		Type: config.TransportTypeStdio,
	}

	_, err := createTransport(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires command")
}

func TestCreateTransport_HTTP(t *testing.T) {
	cfg := config.TransportConfig{
		Type: config.TransportTypeHTTP,
		URL:  "https://mcp.example.com/v1",
	}

	transport, err := createTransport(cfg)
	require.NoError(t, err)

	httpTransport, ok := transport.(*mcpsdk.StreamableClientTransport)
	require.True(t, ok)
	assert.Equal(t, "https://mcp.example.com/v1", httpTransport.Endpoint)
	assert.Nil(t, httpTransport.HTTPClient) // No custom client needed
}

func TestCreateTransport_HTTP_WithAuth(t *testing.T) {
	cfg := config.TransportConfig{
		Type:        config.TransportTypeHTTP,
		URL:         "https://mcp.example.com/v1",
		BearerToken: "my-token",
		Timeout:     30,
	}

	transport, err := createTransport(cfg)
	require.NoError(t, err)

	httpTransport, ok := transport.(*mcpsdk.StreamableClientTransport)
	require.True(t, ok)
	assert.NotNil(t, httpTransport.HTTPClient)
}

func TestCreateTransport_HTTP_MissingURL(t *testing.T) {
	cfg := config.TransportConfig{
		Type: config.TransportTypeHTTP,
	}

	_, err := createTransport(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires url")
}

func TestCreateTransport_SSE(t *testing.T) {
	cfg := config.TransportConfig{
		Type: config.TransportTypeSSE,
		URL:  "https://mcp.example.com/sse",
	}

	transport, err := createTransport(cfg)
	require.NoError(t, err)

	sseTransport, ok := transport.(*mcpsdk.SSEClientTransport)
	require.True(t, ok)
	assert.Equal(t, "https://mcp.example.com/sse", sseTransport.Endpoint)
}

func TestCreateTransport_SSE_MissingURL(t *testing.T) {
	cfg := config.TransportConfig{
		Type: config.TransportTypeSSE,
	}

	_, err := createTransport(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires url")
}

func TestCreateTransport_UnknownType(t *testing.T) {
	cfg := config.TransportConfig{
		Type: "grpc",
	}

	_, err := createTransport(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestBearerAuthTransport(t *testing.T) {
	var gotAuth string
	rt := &bearerAuthTransport{
		next: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		}),
		token: "tok-123",
	}

	req, err := http.NewRequest(http.MethodGet, "https://mcp.example.com/v1", nil)
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Empty(t, req.Header.Get("Authorization"), "the original request must not be mutated")
}

func TestHTTPClientForTimeout(t *testing.T) {
	client := httpClientFor(config.TransportConfig{Timeout: 45})
	require.NotNil(t, client)
	assert.Equal(t, 45*time.Second, client.Timeout)
}

func TestCreateTransport_SSE_WithVerifySSLFalse(t *testing.T) {
	verifySSL := false
	cfg := config.TransportConfig{
		Type:      config.TransportTypeSSE,
		URL:       "https://mcp.example.com/sse",
		VerifySSL: &verifySSL,
	}

	transport, err := createTransport(cfg)
	require.NoError(t, err)

	sseTransport, ok := transport.(*mcpsdk.SSEClientTransport)
	require.True(t, ok)
	assert.NotNil(t, sseTransport.HTTPClient, "expected custom HTTP client for VerifySSL=false")
}
