package server

import (
	"log/slog"
	"net/http"

	"github.com/gi8lino/tilecarto/internal/config"
	"github.com/gi8lino/tilecarto/internal/handlers"
	"github.com/gi8lino/tilecarto/internal/middleware"
)

// NewRouter creates a new HTTP router.
func NewRouter(
	cfg config.Config,
	loader handlers.Loader,
	metrics http.Handler,
	logger *slog.Logger,
	debug bool,
	routePrefix string,
) http.Handler {
	root := http.NewServeMux()

	// Health checks (no logging)
	root.Handle("GET /healthz", handlers.Healthz())
	root.Handle("POST /healthz", handlers.Healthz())

	if metrics != nil {
		root.Handle("GET /metrics", metrics)
	}

	api := http.NewServeMux()
	api.Handle("GET /sources", handlers.SourcesHandler(cfg))
	api.Handle("GET /sources/{name}", handlers.SourceHandler(cfg, loader, logger))
	api.Handle("GET /sources/{name}/{z}/{x}/{y}", handlers.TileHandler(cfg, loader, logger))
	api.Handle("GET /hash/{id}", handlers.HashHandler(cfg, loader, logger))

	// Request logging only in debug mode
	var apiHandler http.Handler = api
	if debug {
		apiHandler = middleware.Chain(apiHandler, middleware.LoggingMiddleware(logger))
	}

	// mount under /api/v1/
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", apiHandler))

	return mountUnderPrefix(root, routePrefix)
}
