package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gi8lino/tilecarto/internal/carto"
	"github.com/gi8lino/tilecarto/internal/config"
	"github.com/gi8lino/tilecarto/internal/tilesource"
)

// Loader resolves a connection string into a tile source.
// *protocols.Registry satisfies it.
type Loader interface {
	Load(ctx context.Context, uri string) (tilesource.Source, error)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) // nolint:errcheck
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// resolveStatus maps a resolution error to an HTTP status.
// Upstream failures are the gateway's fault, everything else is ours.
func resolveStatus(err error) int {
	switch {
	case errors.Is(err, carto.ErrRemoteUnavailable), errors.Is(err, carto.ErrTransport):
		return http.StatusServiceUnavailable
	case errors.Is(err, carto.ErrRemoteRejected), errors.Is(err, carto.ErrUnexpectedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// loadSource looks up the source named by the "name" path value and resolves it.
// It writes the error response itself and reports whether the caller may continue.
func loadSource(
	w http.ResponseWriter,
	r *http.Request,
	cfg config.Config,
	loader Loader,
	logger *slog.Logger,
) (config.Source, tilesource.Source, bool) {
	name := r.PathValue("name")
	src, ok := cfg.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown source")
		return config.Source{}, nil, false
	}

	ts, err := loader.Load(r.Context(), src.URI)
	if err != nil {
		status := resolveStatus(err)
		logger.Error("source resolution failed", "source", name, "status", status, "error", err)
		writeError(w, status, "failed to resolve source")
		return src, nil, false
	}
	return src, ts, true
}
