package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/anonpay/paylink-agent/internal/data"
	"github.com/anonpay/paylink-agent/internal/infra/fkey"
	"github.com/anonpay/paylink-agent/internal/infra/payrail"
	"github.com/anonpay/paylink-agent/mcpserver"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	resolverURL := os.Getenv("RESOLVER_BASE_URL")
	if resolverURL == "" {
		resolverURL = "https://fkey.id"
	}
	payRailURL := os.Getenv("PAYRAIL_BASE_URL")
	if payRailURL == "" {
		log.Fatal("PAYRAIL_BASE_URL is required")
	}

	dbPath := os.Getenv("IDENTITY_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".paylink-agent", "identities.db")
	}

	identityRepo, err := data.NewIdentityRepo(dbPath)
	if err != nil {
		log.Fatalf("Failed to open identity store: %v", err)
	}
	defer identityRepo.Close()

	resolver := data.NewResolverRepo(fkey.NewClient(resolverURL))
	payRail := data.NewPayRailRepo(payrail.NewClient(payRailURL, os.Getenv("PAYRAIL_API_KEY")))

	srv := mcpserver.NewServer(resolver, payRail, identityRepo)
	if err := srv.Run(context.Background()); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
