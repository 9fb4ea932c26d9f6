package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tbrandt/grouppot/internal/api"
	"github.com/tbrandt/grouppot/internal/bot"
	"github.com/tbrandt/grouppot/internal/config"
	"github.com/tbrandt/grouppot/internal/db"
	"github.com/tbrandt/grouppot/internal/tracker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	database, err := db.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	svc := tracker.New(database)

	// Start Discord companion bot when a token is configured
	if cfg.DiscordToken != "" {
		discordBot, err := bot.New(cfg.DiscordToken, database, svc)
		if err != nil {
			log.Fatalf("Failed to create discord bot: %v", err)
		}
		if err := discordBot.Start(); err != nil {
			log.Fatalf("Failed to start discord bot: %v", err)
		}
		defer discordBot.Stop()
	}

	// Start API server
	apiServer := api.New(cfg, database, svc)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
}
