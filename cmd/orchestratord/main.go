// Command orchestratord runs the autonomous task-execution orchestrator.
//
// It serves the RPC surface (spec §6) over stdio or Streamable HTTP and
// delegates planning, compliance, and dispatch to the Planning Engine,
// Compliance Validator, Worker Pool, Arbiter, Executor, and Change
// Applier.
//
// Required environment variables:
//
//	ORCHESTRATOR_LLM_API_KEY - API key for the configured LLM backend
//
// Optional environment variables and config file fields are documented in
// internal/config.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/emergent-company/orchestrator/internal/applier"
	"github.com/emergent-company/orchestrator/internal/arbiter"
	"github.com/emergent-company/orchestrator/internal/audit"
	"github.com/emergent-company/orchestrator/internal/config"
	"github.com/emergent-company/orchestrator/internal/content"
	"github.com/emergent-company/orchestrator/internal/executor"
	"github.com/emergent-company/orchestrator/internal/llm"
	"github.com/emergent-company/orchestrator/internal/orchestrator"
	"github.com/emergent-company/orchestrator/internal/planning"
	"github.com/emergent-company/orchestrator/internal/rpc"
	"github.com/emergent-company/orchestrator/internal/tools/discovery"
	"github.com/emergent-company/orchestrator/internal/workers"
)

// Version is set via ldflags at build time.
var Version = "dev"

const (
	exitSuccess        = 0
	exitConfigError    = 2
	exitConstructError = 3
	exitBindError      = 4
	exitUsageError     = 64
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to orchestratord.toml")
	workspaceRoot := flag.String("workspace", ".", "directory the Change Applier writes into")
	flag.Parse()
	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "orchestratord: unexpected arguments: %v\n", flag.Args())
		return exitUsageError
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orchestratord: loading config: %v\n", err)
		return exitConfigError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	provider, err := llm.NewProvider(llm.Config{
		Backend:         cfg.LLM.Provider,
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		CacheTTLSeconds: int(cfg.LLM.CacheTTL.Seconds()),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "orchestratord: constructing llm provider: %v\n", err)
		return exitConstructError
	}

	client := llm.NewClient(provider, cfg.LLM.CacheTTL, logger)
	engine := planning.NewEngine(client, logger, cfg.LLM.MaxAttempts)

	pool := workers.New()
	for i, endpoint := range cfg.Workers.HTTPEndpoints {
		pool.RegisterHTTPWorker(fmt.Sprintf("worker-%d", i+1), endpoint)
	}

	auditLog := audit.NewLog()

	breakerParams := executor.BreakerParams{
		FailureThreshold: cfg.Executor.FailureThreshold,
		SuccessThreshold: cfg.Executor.SuccessThreshold,
		ResetTimeout:     cfg.Executor.ResetTimeout,
		OperationTimeout: cfg.Executor.PerTaskTimeout,
		Window:           cfg.Executor.Window,
	}

	appl := applier.New(*workspaceRoot, logger)
	exec := executor.New("orchestratord", breakerParams, pool, arbiter.New(), appl, auditLog, logger)

	svc := orchestrator.New(engine, exec, pool, auditLog, logger)

	registry := rpc.NewRegistry()
	registry.Register(discovery.NewPolicyValidator())
	registry.Register(discovery.NewWaiverAuditor())
	registry.Register(discovery.NewBudgetVerifier())
	registry.Register(discovery.NewDebateOrchestrator())
	registry.Register(discovery.NewTaskDecomposer())
	registry.RegisterPrompt(&content.SubmitTaskPrompt{})
	registry.RegisterPrompt(&content.ClarifyTaskPrompt{})
	registry.RegisterResource(&content.PolicyReferenceResource{})
	registry.RegisterResource(&content.MethodReferenceResource{})

	version := Version
	server := rpc.NewServer(registry, svc, rpc.ServerInfo{
		Name:    "orchestratord",
		Version: version,
	}, logger)

	logger.Info("starting orchestratord", "version", version, "transport", cfg.Transport.Mode)

	switch cfg.Transport.Mode {
	case "http":
		httpServer := rpc.NewHTTPServer(server, cfg.Transport.CORSOrigins, logger)
		addr := cfg.Transport.Host + ":" + cfg.Transport.Port
		srv := &http.Server{Addr: addr, Handler: httpServer.Handler()}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "orchestratord: binding transport: %v\n", err)
				return exitBindError
			}
		case <-ctx.Done():
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}
	default:
		if err := server.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "orchestratord: %v\n", err)
			return exitConstructError
		}
	}

	return exitSuccess
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
