package main

import (
	"log"

	"github.com/joho/godotenv"

	"invoicing/cmd"
	"invoicing/internal/config"
	"invoicing/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		if setupErr := logger.Setup(logger.DefaultConfig()); setupErr != nil {
			log.Fatalf("Failed to initialize logger: %v", setupErr)
		}
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLog := logger.WithComponent("main")
	appLog.Debug().Str("db", cfg.DatabasePath).Msg("Starting invoicing CLI")

	cmd.Execute(cfg)
}
