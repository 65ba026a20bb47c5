package main

import (
	"flag"
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mandalhq/mandal-api/internal/config"
	"github.com/mandalhq/mandal-api/internal/database"
)

func main() {
	path := flag.String("path", "migrations", "path to migration files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.RunMigrations(cfg.DatabaseURL, *path); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations applied")
}
