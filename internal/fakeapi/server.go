package fakeapi

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server wraps the HTTP server setup.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	backend    *Backend
}

// New builds a Server around backend.
func New(addr string, logger *log.Logger, backend *Backend, corsOrigins []string) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           Handler(logger, backend, corsOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{
		httpServer: httpSrv,
		logger:     logger,
		backend:    backend,
	}
}

// Handler returns the traced router alone, for httptest servers. Each
// request gets a server span continuing the caller's traceparent; opts
// override the otel globals.
func Handler(logger *log.Logger, backend *Backend, corsOrigins []string, opts ...otelhttp.Option) http.Handler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return otelhttp.NewHandler(buildRouter(logger, backend, corsOrigins), "fakeapi", opts...)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readyHandler reports ready once the catalog has products to sell.
func readyHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		if backend == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "backend not configured"})
			return
		}
		page := backend.ListProducts(c.Request.Context(), ProductQuery{ActiveOnly: true, Paging: Paging{Size: 1}})
		if page.TotalElements == 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "catalog empty"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
