package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	assetpg "medequip-cloud/internal/assets/infrastructure/postgres"
	invpg "medequip-cloud/internal/inventory/infrastructure/postgres"
	mdpg "medequip-cloud/internal/masterdata/infrastructure/postgres"
	maintpg "medequip-cloud/internal/maintenance/infrastructure/postgres"
	"medequip-cloud/internal/seeding"
)

type config struct {
	dsn     string
	timeout time.Duration
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	repos := seeding.Repositories{
		Locations:   mdpg.NewLocationRepository(db),
		Technicians: mdpg.NewTechnicianRepository(db),
		Assets:      assetpg.NewAssetRepository(db),
		Parts:       invpg.NewPartRepository(db),
		Orders:      maintpg.NewWorkOrderRepository(db),
		Movements:   assetpg.NewMovementRepository(db),
	}

	gen := seeding.DemoGenerator{}
	dataset := gen.Generate(time.Now().UTC())

	if err := seeding.Apply(ctx, dataset, repos); err != nil {
		log.Fatalf("seed: %v", err)
	}

	log.Printf("seed completed: locations=%d technicians=%d assets=%d parts=%d workorders=%d movements=%d",
		len(dataset.Locations), len(dataset.Technicians), len(dataset.Assets),
		len(dataset.Parts), len(dataset.WorkOrders), len(dataset.Movements))
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.dsn, "pg-dsn", envOrDefault("PG_DSN", envOrDefault("DATABASE_URL", "")), "Postgres DSN")
	flag.DurationVar(&cfg.timeout, "timeout", 2*time.Minute, "overall timeout")
	flag.Parse()
	return cfg
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
