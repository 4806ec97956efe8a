package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gi8lino/tilecarto/internal/config"
	"github.com/gi8lino/tilecarto/internal/tilesource"
)

// TileHandler redirects to the upstream URL of a single tile.
func TileHandler(cfg config.Config, loader Loader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var coords [3]int
		for i, key := range []string{"z", "x", "y"} {
			n, err := strconv.Atoi(r.PathValue(key))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid tile coordinate "+key)
				return
			}
			coords[i] = n
		}

		_, ts, ok := loadSource(w, r, cfg, loader, logger)
		if !ok {
			return
		}

		target, err := ts.TileURL(coords[0], coords[1], coords[2])
		if err != nil {
			if errors.Is(err, tilesource.ErrTileOutOfRange) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			logger.Error("tile url expansion failed", "source", r.PathValue("name"), "error", err)
			writeError(w, http.StatusInternalServerError, "failed to build tile url")
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}
