package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/simolima/sportlink-demo-sub001/internal/config"
	"github.com/simolima/sportlink-demo-sub001/internal/database"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		connect()
		defer database.Close()
		runMigrationsUp()
	case "status":
		connect()
		defer database.Close()
		if !printStatus() {
			os.Exit(2)
		}
	default:
		fmt.Println("Usage: migrate [up|status]")
		fmt.Println("  up     - Create or update every table and index")
		fmt.Println("  status - List tables that do not exist yet (exit 2 when any are pending)")
		os.Exit(1)
	}
}

func connect() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Println("Connecting to database...")
	if err := database.Initialize(cfg.DatabaseURL, cfg.Environment); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
}

func runMigrationsUp() {
	log.Println("Running migrations...")
	if err := database.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("All migrations completed successfully")
}

func printStatus() bool {
	pending, err := database.PendingTables(database.DB)
	if err != nil {
		log.Fatalf("Failed to inspect schema: %v", err)
	}
	if len(pending) == 0 {
		fmt.Println("Schema is up to date")
		return true
	}
	fmt.Printf("%d table(s) pending: %s\n", len(pending), strings.Join(pending, ", "))
	return false
}
