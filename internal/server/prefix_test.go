package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMountUnderPrefix(t *testing.T) {
	t.Parallel()

	inner := http.NewServeMux()
	inner.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok") // nolint:errcheck
	})
	inner.HandleFunc("GET /api/v1/sources/{name}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.PathValue("name")) // nolint:errcheck
	})

	tests := []struct {
		name     string
		prefix   string
		path     string
		code     int
		body     string
		location string
	}{
		{name: "root mount serves directly", prefix: "", path: "/healthz", code: http.StatusOK, body: "ok"},
		{name: "root mount keeps path values", prefix: "", path: "/api/v1/sources/roads", code: http.StatusOK, body: "roads"},
		{name: "prefix is stripped", prefix: "/tilecarto", path: "/tilecarto/healthz", code: http.StatusOK, body: "ok"},
		{name: "prefix keeps path values", prefix: "/tilecarto", path: "/tilecarto/api/v1/sources/osm", code: http.StatusOK, body: "osm"},
		{name: "bare prefix redirects", prefix: "/tilecarto", path: "/tilecarto", code: http.StatusMovedPermanently, location: "/tilecarto/"},
		{name: "unprefixed path is not served", prefix: "/tilecarto", path: "/healthz", code: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			mountUnderPrefix(inner, tc.prefix).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.Equal(t, tc.code, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
			if tc.location != "" {
				assert.Equal(t, tc.location, rec.Header().Get("Location"))
			}
		})
	}
}
