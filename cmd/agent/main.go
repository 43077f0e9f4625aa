package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/anonpay/paylink-agent/internal/api"
	"github.com/anonpay/paylink-agent/internal/biz/usecase"
	"github.com/anonpay/paylink-agent/internal/conf"
	"github.com/anonpay/paylink-agent/internal/data"
	"github.com/anonpay/paylink-agent/internal/infra/fkey"
	"github.com/anonpay/paylink-agent/internal/infra/llm"
	"github.com/anonpay/paylink-agent/internal/infra/mesh"
	"github.com/anonpay/paylink-agent/internal/infra/payrail"
	"github.com/anonpay/paylink-agent/internal/server"
	"github.com/anonpay/paylink-agent/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients
	meshClient := mesh.NewClient(cfg.Mesh.GatewayURL, cfg.Mesh.AgentKey)
	if err := meshClient.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to mesh gateway: %v", err)
	}

	resolverClient := fkey.NewClient(cfg.Resolver.BaseURL)
	payRailClient := payrail.NewClient(cfg.PayRail.BaseURL, cfg.PayRail.APIKey)

	var llmClient *llm.Client
	if cfg.Completion.APIKey != "" {
		llmClient = llm.NewClient(cfg.Completion.APIKey, cfg.Completion.Model, cfg.Completion.BaseURL)
		fmt.Println("[Agent] Completion fallback enabled")
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(
		meshClient,
		resolverClient,
		payRailClient,
		llmClient,
		cfg.Store.DBPath,
		cfg.Store.RedisAddr,
		cfg.Store.RedisPassword,
	)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Identity.Close()

	fmt.Printf("[Agent] Identity DB: %s\n", cfg.Store.DBPath)

	// Initialize usecase layer
	registry := usecase.NewActionSetRegistry()
	intents := usecase.NewIntentCache()
	freshness := usecase.NewFreshnessUsecase(repos.Identity, repos.Resolver)
	onboarding := usecase.NewOnboardingUsecase(freshness, registry)
	payment := usecase.NewPaymentUsecase(freshness, repos.PayRail, registry)

	// Initialize service layer
	agentSvc := service.NewAgentService(
		repos.Transport,
		repos.Resolver,
		repos.Identity,
		repos.Receipts,
		repos.Completion,
		freshness,
		onboarding,
		payment,
		registry,
		intents,
		cfg.Mesh.Handle,
	)

	reaper := service.NewReaper(onboarding, payment, cfg.ReapTTL)
	reaper.Start(ctx)
	defer reaper.Stop()

	// Optional admin API
	if cfg.AdminPort > 0 {
		adminSrv := api.NewServer(repos.Identity, payment, onboarding, cfg.AdminPort)
		if err := adminSrv.Start(); err != nil {
			log.Fatalf("Failed to start admin API: %v", err)
		}
		defer adminSrv.Stop()
	}

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	fmt.Printf("[Agent] Starting as %s (handle %s)\n", meshClient.AgentID(), cfg.Mesh.Handle)

	supervisor := server.NewSupervisor(repos.Transport, agentSvc, cfg.Workers)
	if err := supervisor.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Supervisor error: %v", err)
	}
}
