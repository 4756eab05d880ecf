package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/auth"
	"github.com/simolima/sportlink-demo-sub001/internal/config"
	"github.com/simolima/sportlink-demo-sub001/internal/database"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/repository"
	"github.com/simolima/sportlink-demo-sub001/internal/search"
	"github.com/simolima/sportlink-demo-sub001/internal/seed"
)

func main() {
	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev", "test", "clean", "tokens":
	default:
		fmt.Println("Usage: seed [dev|test|clean|tokens [email...]]")
		fmt.Println("  dev    - Seed development database with realistic data")
		fmt.Println("  test   - Seed a small fixed data set")
		fmt.Println("  clean  - Remove all rows from every table (use with caution)")
		fmt.Println("  tokens - Print access tokens for the test users or the given emails")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel, "logs/seed.log"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if (command == "clean" || command == "tokens") && cfg.IsProduction() {
		log.Fatalf("Refusing to run %s against production", command)
	}

	if err := database.Initialize(cfg.DatabaseURL, cfg.Environment); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	seeder := seed.NewSeeder(database.DB)
	if command == "tokens" {
		printTokens(ctx, seeder, cfg.AuthJWTSecret, os.Args[2:])
		return
	}
	if command != "clean" && cfg.ElasticsearchURL != "" {
		es, err := search.NewClient(cfg.ElasticsearchURL)
		if err != nil {
			log.Printf("Elasticsearch unavailable, skipping indexing: %v", err)
		} else if err := es.InitializeIndices(ctx); err != nil {
			log.Printf("Failed to create search indices, skipping indexing: %v", err)
		} else {
			svc := search.NewService(es, repository.NewUserRepository(database.DB), search.DefaultBreakerConfig())
			seeder.SetIndexer(svc)
		}
	}

	switch command {
	case "dev":
		log.Println("Seeding development database...")
		err = seeder.SeedDev(ctx, seed.DefaultCounts)
	case "test":
		log.Println("Seeding test database...")
		err = seeder.SeedTest(ctx)
	case "clean":
		log.Println("Cleaning database...")
		err = seeder.Clean(ctx)
	}
	if err != nil {
		log.Fatalf("Seed %s failed: %v", command, err)
	}
	log.Printf("Seed %s completed successfully", command)
}

// printTokens writes one line per user in the form the CLI's --token and
// --user flags expect.
func printTokens(ctx context.Context, seeder *seed.Seeder, secret string, emails []string) {
	issuer, err := auth.NewService([]byte(secret))
	if err != nil {
		log.Fatalf("AUTH_JWT_SECRET is required to issue tokens: %v", err)
	}
	tokens, err := seeder.Tokens(ctx, issuer, auth.DefaultTokenTTL, emails...)
	if err != nil {
		log.Fatalf("Failed to issue tokens: %v", err)
	}
	for _, t := range tokens {
		fmt.Printf("# %s (%s) expires %s\n", t.Email, t.Role, t.ExpiresAt.Format(time.RFC3339))
		fmt.Printf("SPRINTA_USER=%s SPRINTA_TOKEN=%s\n", t.UserID, t.Token)
	}
}
