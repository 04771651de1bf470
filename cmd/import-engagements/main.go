package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/ignite/hcp-engage/internal/config"
	"github.com/ignite/hcp-engage/internal/repository/postgres"
	"github.com/ignite/hcp-engage/internal/warehouse"

	_ "github.com/lib/pq"
)

// import-engagements pulls per-HCP channel engagement aggregates from the
// Snowflake warehouse and upserts them into the operational database. Run it
// from cron after the nightly warehouse build lands.
func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}
	if cfg.Warehouse.Account == "" {
		log.Fatal("warehouse.account (or SNOWFLAKE_ACCOUNT) is required")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	client, err := warehouse.NewClient(cfg.Warehouse)
	if err != nil {
		log.Fatalf("Failed to connect to warehouse: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		log.Fatalf("Warehouse unreachable: %v", err)
	}

	importer := warehouse.NewImporter(client, postgres.NewHCPRepo(db))
	stats, err := importer.ImportEngagements(ctx)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Import complete: %d profiles, %d rows, %d errors",
		stats.Profiles, stats.Rows, stats.Errors)
}
