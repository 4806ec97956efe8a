package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gi8lino/tilecarto/internal/config"
	"github.com/gi8lino/tilecarto/internal/hash"
)

// HashHandler responds with a hash of either the configured sources
// or the current template of a single source, based on the "id" path value.
func HashHandler(cfg config.Config, loader Loader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		if id == "config" {
			h, err := hash.Any(cfg.Sources)
			if err != nil {
				http.Error(w, "failed to compute hash for config", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(h)) // nolint:errcheck
			return
		}

		r.SetPathValue("name", id)
		src, ts, ok := loadSource(w, r, cfg, loader, logger)
		if !ok {
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(hash.Bytes([]byte(src.Name + "\n" + ts.Template())))) // nolint:errcheck
	}
}
