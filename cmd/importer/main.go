package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"commerce-storefront/internal/app"
	"commerce-storefront/internal/config"
	"commerce-storefront/internal/importer"
)

func main() {
	var (
		filePath string
		email    string
		password string
	)
	flag.StringVar(&filePath, "file", "", "Path to catalog CSV (name,description,sku,price,stockQuantity,category,imageUrl)")
	flag.StringVar(&email, "email", os.Getenv("ADMIN_EMAIL"), "Admin account email")
	flag.StringVar(&password, "password", os.Getenv("ADMIN_PASSWORD"), "Admin account password")
	flag.Parse()

	if filePath == "" || email == "" || password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("init: %v", err)
	}
	defer a.Close()

	if _, err := a.Session.Login(ctx, email, password); err != nil {
		logger.Fatalf("login %s: %v", email, err)
	}
	categories, err := a.Products.Categories(ctx)
	if err != nil {
		logger.Fatalf("load categories: %v", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, importer.ProductWriterFunc(a.Products.Create), categories)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d products: %v", count, err)
	}

	fmt.Printf("Imported %d products into %s in %s\n", count, cfg.APIBaseURL, time.Since(start).Truncate(time.Millisecond))
}
