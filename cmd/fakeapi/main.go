package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"commerce-storefront/internal/config"
	"commerce-storefront/internal/fakeapi"
	"commerce-storefront/internal/importer"
	"commerce-storefront/internal/telemetry"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[fakeapi] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	gin.SetMode(gin.ReleaseMode)
	shutdownTracing := telemetry.Setup("fakeapi", logger)

	ctx := context.Background()
	backend := fakeapi.NewBackend()
	if err := backend.Seed(ctx); err != nil {
		logger.Fatalf("seed: %v", err)
	}
	if cfg.CatalogCSV != "" {
		if err := importCatalog(ctx, logger, backend, cfg.CatalogCSV); err != nil {
			logger.Fatalf("import catalog: %v", err)
		}
	}

	srv := fakeapi.New(cfg.HTTPAddr, logger, backend, cfg.CORSOrigins)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting fake backend on %s (admin %s, customer %s)", cfg.HTTPAddr, fakeapi.DemoAdminEmail, fakeapi.DemoCustomerEmail)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Printf("tracing shutdown: %v", err)
	}
}

func importCatalog(ctx context.Context, logger *log.Logger, backend *fakeapi.Backend, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	count, err := importer.NewCSVImporter(f, backend, backend.ListCategories(ctx)).Run(ctx)
	if err != nil {
		return err
	}
	logger.Printf("imported %d products from %s", count, path)
	return nil
}
