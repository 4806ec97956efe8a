package fetcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []int
}

func (o *recordingObserver) ObserveRequest(_ string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, status)
}

func statusServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_Execute(t *testing.T) {
	t.Parallel()

	t.Run("200 returns body and sends JSON", func(t *testing.T) {
		t.Parallel()

		var gotMethod, gotCT, gotBody, gotKey string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			gotBody = string(b)
			gotKey = r.URL.Query().Get("api_key")
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		t.Cleanup(ts.Close)

		obs := &recordingObserver{}
		c := NewClient(ts.Client(), nil)
		c.Observer = obs

		body, err := c.Execute(t.Context(), http.MethodPut, ts.URL+"/api/v1/map/named/foo",
			map[string]string{"api_key": "k"}, map[string]any{"name": "foo"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(body))
		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "application/json", gotCT)
		assert.JSONEq(t, `{"name":"foo"}`, gotBody)
		assert.Equal(t, "k", gotKey)
		assert.Equal(t, []int{http.StatusOK}, obs.calls)
	})

	t.Run("nil body is sent as empty object", func(t *testing.T) {
		t.Parallel()

		var gotBody string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			_, _ = w.Write([]byte(`{}`))
		}))
		t.Cleanup(ts.Close)

		_, err := NewClient(ts.Client(), nil).Execute(t.Context(), http.MethodPost, ts.URL, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "{}", gotBody)
	})

	cases := []struct {
		name   string
		status int
		class  error
	}{
		{name: "400 is rejected", status: http.StatusBadRequest, class: ErrRemoteRejected},
		{name: "404 is rejected", status: http.StatusNotFound, class: ErrRemoteRejected},
		{name: "499 is rejected", status: 499, class: ErrRemoteRejected},
		{name: "500 is unavailable", status: http.StatusInternalServerError, class: ErrRemoteUnavailable},
		{name: "503 is unavailable", status: http.StatusServiceUnavailable, class: ErrRemoteUnavailable},
		{name: "201 is unexpected", status: http.StatusCreated, class: ErrUnexpectedResponse},
		{name: "204 is unexpected", status: http.StatusNoContent, class: ErrUnexpectedResponse},
		{name: "304 is unexpected", status: http.StatusNotModified, class: ErrUnexpectedResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ts := statusServer(t, tc.status, `{"errors":["nope"]}`)
			_, err := NewClient(ts.Client(), nil).Execute(t.Context(), http.MethodPost, ts.URL+"/x", map[string]string{"api_key": "secret"}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.class)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.status, se.StatusCode)
			assert.NotContains(t, se.Error(), "secret")

			code, ok := StatusCode(err)
			assert.True(t, ok)
			assert.Equal(t, tc.status, code)
		})
	}

	t.Run("transport failure is returned", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := ts.URL
		ts.Close() // connection refused from now on

		_, err := NewClient(&http.Client{Timeout: time.Second}, nil).Execute(t.Context(), http.MethodPost, url, nil, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransport)

		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.MethodPost, te.Method)

		_, ok := StatusCode(err)
		assert.False(t, ok)
	})

	t.Run("body over limit is a transport error", func(t *testing.T) {
		t.Parallel()

		ts := statusServer(t, http.StatusOK, strings.Repeat("a", 64))
		c := NewClient(ts.Client(), nil)
		c.MaxBodyBytes = 16

		_, err := c.Execute(t.Context(), http.MethodGet, ts.URL, nil, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransport)
		assert.Contains(t, err.Error(), "exceeds 16 bytes")
	})

	t.Run("unencodable body is a transport error", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient(nil, nil).Execute(t.Context(), http.MethodPost, "https://example.invalid", nil, map[string]any{"f": func() {}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransport)

		var ue *json.UnsupportedTypeError
		assert.True(t, errors.As(err, &ue))
	})

	t.Run("logs never include the api key", func(t *testing.T) {
		t.Parallel()

		ts := statusServer(t, http.StatusOK, `{}`)
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		_, err := NewClient(ts.Client(), logger).Execute(t.Context(), http.MethodPost, ts.URL+"/x", map[string]string{"api_key": "topsecret"}, nil)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "upstream response")
		assert.NotContains(t, buf.String(), "topsecret")
	})
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		c := NewHTTPClient(TransportOptions{})
		assert.Equal(t, defaultRequestTimeout, c.Timeout)
		tr, ok := c.Transport.(*http.Transport)
		require.True(t, ok)
		require.NotNil(t, tr.TLSClientConfig)
		assert.False(t, tr.TLSClientConfig.InsecureSkipVerify)
		assert.Greater(t, tr.MaxIdleConnsPerHost, 0)
	})

	t.Run("custom timeout and skip TLS", func(t *testing.T) {
		t.Parallel()
		c := NewHTTPClient(TransportOptions{Timeout: 3 * time.Second, SkipTLSVerify: true})
		assert.Equal(t, 3*time.Second, c.Timeout)
		tr := c.Transport.(*http.Transport)
		assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
	})
}
