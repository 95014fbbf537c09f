// interviewerd runs the mock-interview service: a multi-agent
// orchestrator behind a WebSocket/HTTP gateway.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"

	"mockview/internal/adapter/gateway"
	"mockview/internal/adapter/history"
	"mockview/internal/adapter/llm"
	"mockview/internal/adapter/search"
	"mockview/internal/agent"
	"mockview/internal/domain"
	"mockview/internal/infra/config"
	"mockview/internal/infra/logger"
	"mockview/internal/infra/tracer"
	"mockview/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func configPath() string {
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	if p := os.Getenv("MOCKVIEW_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func run() error {
	// 1. Config
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	// 3. LLM providers
	provider, err := initLLM(cfg, log)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	// 4. Web search
	searcher, err := search.New(cfg.Search, log)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	// 5. Transcript archive
	archiver, err := history.New(cfg.History)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer archiver.Close()

	// 6. Agents & orchestration
	registry := usecase.NewRegistry(log)
	registry.Register(agent.NewInterview(agent.InterviewDeps{Provider: provider, Logger: log}), 10)
	registry.Register(agent.NewTechnical(agent.TechnicalDeps{Provider: provider, Logger: log}), 9)
	registry.Register(agent.NewFeedback(agent.FeedbackDeps{Logger: log}), 7)
	registry.Register(agent.NewSummary(agent.SummaryDeps{Logger: log}), 6)
	registry.Register(agent.NewEvaluation(agent.EvaluationDeps{Provider: provider, Logger: log}), 5)
	registry.Register(agent.NewSearch(agent.SearchDeps{
		Provider:   searcher,
		MaxResults: cfg.Search.MaxResults,
		Logger:     log,
	}), 4)

	orch := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Registry: registry,
		Selector: usecase.NewSelector(cfg.Routing.SupportThreshold, cfg.Routing.MaxSupporting, log),
		Logger:   log,
	})

	sessions := usecase.NewSessionManager(usecase.SessionManagerDeps{
		Archiver:    archiver,
		Logger:      log,
		MaxIdle:     cfg.Sessions.MaxIdle,
		MaxSessions: cfg.Sessions.MaxSessions,
	})

	// 7. Graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 8. Session reaper
	reaper := cron.New()
	if _, err := reaper.AddFunc(cfg.Sessions.ReapSchedule, func() {
		if n := sessions.ReapStale(ctx); n > 0 {
			log.Info("reaped idle sessions", "count", n)
		}
	}); err != nil {
		return fmt.Errorf("reap schedule: %w", err)
	}
	reaper.Start()
	defer reaper.Stop()

	log.Info("interviewerd starting",
		"provider", cfg.LLM.DefaultProvider,
		"search", cfg.Search.Backend,
		"history", cfg.History.Driver,
		"addr", cfg.Gateway.Addr,
	)

	// 9. Gateway
	if !cfg.Gateway.Enabled {
		log.Warn("gateway disabled, nothing to serve")
		<-ctx.Done()
		return nil
	}

	srv := gateway.NewServer(gateway.Deps{
		Sessions:     sessions,
		Orchestrator: orch,
		Archiver:     archiver,
		Defaults:     cfg.Interview,
		Config:       cfg.Gateway,
		Logger:       log,
	})
	return srv.Start(ctx)
}

// initLLM builds the provider registry from config and returns the
// model router the agents share. Every backend is metered so cost
// tracking works even when the API omits usage, and wrapped in a
// circuit breaker when one is configured.
func initLLM(cfg *config.Config, log *slog.Logger) (domain.LLMProvider, error) {
	registry := llm.NewRegistry(cfg.LLM.DefaultProvider)
	counter := llm.NewTiktokenCounter()

	for _, pc := range cfg.LLM.Providers {
		base, err := createLLMProvider(pc, log)
		if err != nil {
			return nil, err
		}
		var provider domain.LLMProvider = llm.NewMeteredProvider(base, counter)
		if cfg.LLM.CircuitBreaker.Enabled {
			provider = llm.NewCircuitBreakerProvider(provider, cfg.LLM.CircuitBreaker, log)
		}
		registry.Register(provider)
		log.Info("llm provider registered", "name", pc.Name, "type", pc.Type, "model", pc.Model)
	}

	if len(cfg.LLM.Providers) == 0 {
		return nil, fmt.Errorf("no llm providers configured")
	}
	return llm.NewModelRouter(registry), nil
}

// createLLMProvider creates an LLM provider based on the type field.
func createLLMProvider(pc config.ProviderConfig, log *slog.Logger) (domain.LLMProvider, error) {
	switch pc.Type {
	case "openai", "":
		return llm.NewOpenAIProvider(pc, log), nil
	case "anthropic":
		return llm.NewAnthropicProvider(pc, log), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", pc.Type)
	}
}
