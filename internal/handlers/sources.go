package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gi8lino/tilecarto/internal/config"
	"github.com/gi8lino/tilecarto/internal/hash"
	"github.com/gi8lino/tilecarto/internal/utils"
)

// SourceInfo describes a configured source without resolving it.
type SourceInfo struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// ResolvedSource is the body of a single source response.
type ResolvedSource struct {
	Name     string `json:"name"`
	Template string `json:"template"`
	Hash     string `json:"hash"`
}

// SourcesHandler lists the configured sources with credentials redacted.
func SourcesHandler(cfg config.Config) http.HandlerFunc {
	list := make([]SourceInfo, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		list = append(list, SourceInfo{Name: s.Name, URI: utils.RedactURI(s.URI)})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, list)
	}
}

// SourceHandler resolves a configured source and returns its tile template.
// Every request triggers a fresh resolution; the ETag lets clients skip unchanged bodies.
func SourceHandler(cfg config.Config, loader Loader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, ts, ok := loadSource(w, r, cfg, loader, logger)
		if !ok {
			return
		}

		body := ResolvedSource{Name: src.Name, Template: ts.Template()}
		body.Hash = hash.Bytes([]byte(body.Name + "\n" + body.Template))

		etag := fmt.Sprintf("%q", body.Hash)
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}
