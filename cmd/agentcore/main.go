// agentcore server - runs the agent execution runtime behind an HTTP/WebSocket API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/agentcore/pkg/api"
	"github.com/codeready-toolchain/agentcore/pkg/autonomy"
	"github.com/codeready-toolchain/agentcore/pkg/cleanup"
	"github.com/codeready-toolchain/agentcore/pkg/config"
	"github.com/codeready-toolchain/agentcore/pkg/events"
	"github.com/codeready-toolchain/agentcore/pkg/llmtool"
	"github.com/codeready-toolchain/agentcore/pkg/mcp"
	"github.com/codeready-toolchain/agentcore/pkg/platform"
	"github.com/codeready-toolchain/agentcore/pkg/processstore"
	"github.com/codeready-toolchain/agentcore/pkg/ranker"
	"github.com/codeready-toolchain/agentcore/pkg/redact"
	"github.com/codeready-toolchain/agentcore/pkg/wsevents"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Parse command-line flags
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	ginMode := getEnv("GIN_MODE", "debug")
	gin.SetMode(ginMode)

	log.Printf("Starting agentcore")
	log.Printf("HTTP Port: %s", httpPort)
	log.Printf("Config Directory: %s", *configDir)

	ctx := context.Background()

	// Initialize configuration system
	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	// Event bus + optional durable process store
	bus := events.NewBus(0)
	store := buildStore(ctx, cfg)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing process store: %v", err)
		}
	}()

	// Redaction + MCP tool executors
	redaction := redact.NewServiceFromConfig(cfg)
	toolFactory := mcp.NewClientFactory(cfg.MCPServerRegistry, redaction)

	// Platform over the client from buildLLMClient, which is the
	// deterministic fake; no environment variable selects a live endpoint.
	llm := buildLLMClient()

	p := platform.New(llm, bus,
		platform.WithToolExecutorFactory(toolFactory),
		platform.WithEventStore(store))
	registerConfiguredComponents(cfg, p)

	// Ranker: model-backed (LLMRanker over llm) for every request; a
	// request's test flag does not switch autonomy to the FakeRanker.
	rk := buildRanker(llm, bus)
	auto := autonomy.New(p, rk, bus)

	// Worker pool for async process execution
	pool := platform.NewWorkerPool(p, cfg.Defaults.WorkerCount)
	pool.Start(ctx)
	defer pool.Stop()

	// Retention
	cleaner := cleanup.NewService(cfg.Retention, store)
	cleaner.Start(ctx)
	defer cleaner.Stop()

	// HTTP + WebSocket façade
	hub := wsevents.NewHub(bus)
	server := api.NewServer(p, auto, pool, hub,
		api.WithAllowedWSOrigins(cfg.AllowedWSOrigins))

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down")
		pool.Stop()
		cleaner.Stop()
		os.Exit(0)
	}()

	log.Printf("HTTP server listening on :%s", httpPort)
	log.Printf("Health check available at: http://localhost:%s/healthz", httpPort)
	if err := server.Run(":" + httpPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildStore opens the Postgres-backed process store when the configured
// connection env var is set, falling back to the in-memory store.
func buildStore(ctx context.Context, cfg *config.Config) processstore.Store {
	connStr := os.Getenv(cfg.DatabaseURLEnv)
	if connStr == "" {
		log.Printf("No %s set, using in-memory process store", cfg.DatabaseURLEnv)
		return processstore.NewMemStore()
	}
	store, err := processstore.OpenPostgres(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to open process store: %v", err)
	}
	log.Println("✓ Connected to PostgreSQL process store")
	return store
}

// buildLLMClient returns the live LLM client. The provider adapter is an
// external collaborator; deployments plug one in here. Until one is
// wired, the deterministic fake keeps the runtime fully operable in test
// mode.
func buildLLMClient() llmtool.LLMClient {
	return llmtool.NewFakeLLM()
}

// buildRanker returns the ranker used by autonomy endpoints.
func buildRanker(llm llmtool.LLMClient, bus *events.Bus) ranker.Ranker {
	mediator := llmtool.NewMediator(llm, nil, llmtool.ProcessContext{
		ProcessID: "autonomy",
		Bus:       bus,
	})
	return ranker.NewLLMRanker(mediator)
}

// registerConfiguredComponents resolves every configured AgentDefinition
// against the process-wide component registry and registers the results
// with the platform. Agent modules add their actions/conditions/goals to
// config.Components() at init time.
func registerConfiguredComponents(cfg *config.Config, p *platform.Platform) {
	components := config.Components()

	for name, group := range cfg.ToolGroupRegistry.GetAll() {
		p.RegisterToolGroup(platform.ToolGroup{
			Name:        name,
			Description: group.Description,
			ServerIDs:   group.Servers,
		})
	}

	for name := range cfg.AgentRegistry.GetAll() {
		agent, err := cfg.ResolveAgent(name, components)
		if err != nil {
			log.Fatalf("Failed to resolve agent %q: %v", name, err)
		}
		p.RegisterAgent(agent)
	}
}
