package main

import (
	"context"
	"log"
	"os"

	"commerce-storefront/internal/config"
	"commerce-storefront/internal/db"
	"commerce-storefront/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	versions, err := migrate.Versions()
	if err != nil {
		logger.Fatalf("list migrations: %v", err)
	}
	logger.Printf("client storage schema up to date files=%d", len(versions))
}
