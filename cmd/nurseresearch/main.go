// Command nurseresearch runs the HTTP/WebSocket API that fronts the nursing
// QI research assistant: project administration, conversational utterances
// routed through the Planner and Executor, and a live run-progress feed.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/nurseresearch/pkg/agent"
	"github.com/codeready-toolchain/nurseresearch/pkg/api"
	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/breaker"
	"github.com/codeready-toolchain/nurseresearch/pkg/cleanup"
	"github.com/codeready-toolchain/nurseresearch/pkg/config"
	"github.com/codeready-toolchain/nurseresearch/pkg/events"
	"github.com/codeready-toolchain/nurseresearch/pkg/httpcache"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/planner"
	"github.com/codeready-toolchain/nurseresearch/pkg/project"
	"github.com/codeready-toolchain/nurseresearch/pkg/store"
	"github.com/codeready-toolchain/nurseresearch/pkg/tools"
	"github.com/codeready-toolchain/nurseresearch/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpAddr := ":" + getEnv("HTTP_PORT", "8080")

	log.Printf("Starting %s", version.Full())
	log.Printf("Config directory: %s", *configDir)

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}
	stats := cfg.Stats()
	log.Printf("configuration loaded: %d agents, %d tools, %d LLM providers", stats.Agents, stats.Tools, stats.LLMProviders)

	auditLog, err := audit.NewLogger(cfg.Storage.AuditLogRoot, cfg.Storage.AuditRotationBytes)
	if err != nil {
		log.Fatalf("failed to open audit log: %v", err)
	}

	projects, err := project.NewManager(cfg.Storage.ProjectDataRoot)
	if err != nil {
		log.Fatalf("failed to open project manager: %v", err)
	}
	defer func() {
		if err := projects.Close(); err != nil {
			log.Printf("error closing project manager: %v", err)
		}
	}()
	log.Printf("%d project(s) loaded from %s", len(projects.List()), cfg.Storage.ProjectDataRoot)

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		log.Fatalf("failed to build LLM client: %v", err)
	}

	toolRegistry := buildToolRegistry(cfg)
	registry := buildAgentRegistry(llmClient, toolRegistry, projects, auditLog)

	plnr := planner.New(llmClient, capabilitiesFor(cfg, registry))

	conn := events.NewConnectionManager(10 * time.Second)

	cleanupSvc := cleanup.NewService(cfg.Retention, projects)
	cleanupSvc.Start(ctx)
	defer cleanupSvc.Stop()

	server := api.NewServer(cfg, projects, registry, plnr, llmClient, auditLog, conn)

	go func() {
		log.Printf("HTTP server listening on %s", httpAddr)
		if err := server.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}
	log.Println("shutdown complete")
}

// newLLMClient builds the Anthropic client bound to the default LLM
// provider, resolving its API key from the environment variable named in
// LLMProviderConfig.APIKeyEnv.
func newLLMClient(cfg *config.Config) (llm.Client, error) {
	providerName := cfg.Defaults.LLMProvider
	provider, err := cfg.GetLLMProvider(providerName)
	if err != nil {
		return nil, err
	}
	apiKey := os.Getenv(provider.APIKeyEnv)
	return llm.NewAnthropicClient(apiKey, provider.Model, provider.BaseURL)
}

// buildToolRegistry wires one Fetcher (breaker + cache backed) shared by
// every adapter, then constructs each of the 10 adapters named in
// initBuiltinTools, configured from cfg.ToolRegistry. Disabled adapters
// (missing optional credentials) are still registered — tools.Registry
// answers their Invoke calls with Result{Disabled: true} rather than
// failing to resolve (§4.3).
func buildToolRegistry(cfg *config.Config) *tools.Registry {
	breakers := breaker.NewRegistry()
	for endpoint, bc := range cfg.Breakers {
		breakers.Configure(endpoint, breaker.Config{FailMax: bc.FailMax, ResetTimeout: bc.ResetTimeout})
	}

	cacheStore, err := store.Open(cfg.Storage.HTTPCachePath)
	if err != nil {
		log.Fatalf("failed to open http cache store: %v", err)
	}
	cache := httpcache.New(1024, store.NewCacheBackend(cacheStore))
	for endpoint, cc := range cfg.Caches {
		if cc.TTL > 0 {
			cache.SetTTL(endpoint, cc.TTL)
		}
	}

	fetcher := tools.NewFetcher(http.DefaultClient, cache, breakers)

	pubmedCfg, _ := cfg.GetTool("pubmed")
	coreCfg, _ := cfg.GetTool("core")
	semanticScholarCfg, _ := cfg.GetTool("semanticscholar")
	websearchCfg, _ := cfg.GetTool("websearch")
	documentsCfg, _ := cfg.GetTool("documents")

	return tools.NewRegistry(
		tools.NewPubMedAdapter(fetcher, pubmedCfg.ContactEmail),
		tools.NewArXivAdapter(fetcher),
		tools.NewClinicalTrialsAdapter(fetcher),
		tools.NewMedRxivAdapter(fetcher),
		tools.NewOpenFDAAdapter(fetcher),
		tools.NewDOAJAdapter(fetcher),
		tools.NewCoreAdapter(fetcher, resolveEnv(coreCfg.APIKey)),
		tools.NewSemanticScholarAdapter(fetcher, resolveEnv(semanticScholarCfg.APIKey)),
		tools.NewWebSearchAdapter(fetcher, resolveEnv(websearchCfg.SerpAPIKeyEnv), resolveEnv(websearchCfg.ExaAPIKeyEnv)),
		tools.NewDocumentAdapter(fetcher, resolveEnv(documentsCfg.GitHubTokenEnv), documentsCfg.AllowedDomains),
	)
}

// resolveEnv treats name as an environment variable name (as every *Env
// field in ToolConfig documents itself) and returns its value, or "" if
// name itself is blank.
func resolveEnv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// defaultProjectName backs the Timeline Agent's store reference (§4.7
// C7.5 reads milestones directly from a store rather than through a tool
// adapter). The agent registry is built once at startup and shared across
// every project, so it is bound to this bookkeeping project's store; the
// milestones it reads are scoped by project_id at query time regardless.
const defaultProjectName = "_system"

// buildAgentRegistry constructs the seven specialized agents (C7) and
// binds them into one process-wide Registry for the Planner/Executor.
func buildAgentRegistry(llmClient llm.Client, toolRegistry *tools.Registry, projects *project.Manager, auditLog *audit.Logger) *agent.Registry {
	_, systemStore, err := projects.Get(defaultProjectName)
	if err != nil {
		if _, createErr := projects.Create(defaultProjectName); createErr != nil {
			log.Fatalf("failed to create bookkeeping project: %v", createErr)
		}
		_, systemStore, err = projects.Get(defaultProjectName)
		if err != nil {
			log.Fatalf("failed to open bookkeeping project store: %v", err)
		}
	}

	return agent.NewRegistry(
		agent.NewPICOTAgent(llmClient, auditLog),
		agent.NewPubMedAgent(llmClient, toolRegistry, auditLog),
		agent.NewArXivAgent(llmClient, toolRegistry, auditLog),
		agent.NewNursingAgent(llmClient, toolRegistry, auditLog),
		agent.NewTimelineAgent(llmClient, systemStore, auditLog),
		agent.NewDataAnalysisAgent(llmClient, auditLog),
		agent.NewCitationAgent(llmClient, auditLog),
	)
}

// capabilitiesFor builds the Planner's AgentCapability listing from the
// registered agents' configured descriptions and tool bindings.
func capabilitiesFor(cfg *config.Config, registry *agent.Registry) []planner.AgentCapability {
	caps := make([]planner.AgentCapability, 0, len(registry.Keys()))
	for _, key := range registry.Keys() {
		agentCfg, err := cfg.GetAgent(key)
		if err != nil {
			continue
		}
		caps = append(caps, planner.AgentCapability{
			AgentKey:   key,
			Capability: agentCfg.Description,
			Actions:    agentCfg.Tools,
		})
	}
	return caps
}
