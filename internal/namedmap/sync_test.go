package namedmap_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gi8lino/tilecarto/internal/fetcher"
	"github.com/gi8lino/tilecarto/internal/logging"
	"github.com/gi8lino/tilecarto/internal/namedmap"
	"github.com/gi8lino/tilecarto/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	collectionPath = "/api/v1/map/named"
	fooPath        = "/api/v1/map/named/foo"
)

func newClient(t *testing.T, api *testutils.FakeNamedMapAPI) *namedmap.Client {
	t.Helper()
	exec := fetcher.NewClient(api.Server.Client(), logging.Discard())
	return namedmap.NewClient(exec, "user", "key", "cartodb.com", logging.Discard(), namedmap.WithBaseURL(api.URL()))
}

func TestClient_BaseURL(t *testing.T) {
	t.Parallel()

	c := namedmap.NewClient(nil, "user", "key", "cartodb.com", logging.Discard())
	assert.Equal(t, "https://user.cartodb.com", c.BaseURL())

	c = namedmap.NewClient(nil, "user", "key", "cartodb.com", logging.Discard(), namedmap.WithBaseURL("http://127.0.0.1:1234/"))
	assert.Equal(t, "http://127.0.0.1:1234", c.BaseURL())
}

func TestNotFoundStatus(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 400, namedmap.NotFoundStatus)
}

func TestClient_Sync(t *testing.T) {
	t.Parallel()

	cfg := namedmap.MapConfig{"name": "foo", "version": "0.0.1"}

	t.Run("update succeeds, create never called", func(t *testing.T) {
		t.Parallel()

		api := testutils.NewFakeNamedMapAPI(t, testutils.FakeOptions{})
		require.NoError(t, newClient(t, api).Sync(t.Context(), cfg))

		assert.Equal(t, 1, api.Count(http.MethodPut, fooPath))
		assert.Equal(t, 0, api.Count(http.MethodPost, collectionPath))

		calls := api.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "key", calls[0].APIKey)
		assert.Equal(t, "foo", calls[0].Body["name"])
		assert.Equal(t, "0.0.1", calls[0].Body["version"])
	})

	t.Run("update 400 falls back to create exactly once", func(t *testing.T) {
		t.Parallel()

		api := testutils.NewFakeNamedMapAPI(t, testutils.FakeOptions{UpdateStatus: http.StatusBadRequest})
		require.NoError(t, newClient(t, api).Sync(t.Context(), cfg))

		assert.Equal(t, 1, api.Count(http.MethodPut, fooPath))
		assert.Equal(t, 1, api.Count(http.MethodPost, collectionPath))

		calls := api.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, http.MethodPut, calls[0].Method)
		assert.Equal(t, http.MethodPost, calls[1].Method)
		assert.Equal(t, calls[0].Body, calls[1].Body, "create sends the same body")
	})

	t.Run("create failure after 400 is propagated", func(t *testing.T) {
		t.Parallel()

		api := testutils.NewFakeNamedMapAPI(t, testutils.FakeOptions{
			UpdateStatus: http.StatusBadRequest,
			CreateStatus: http.StatusInternalServerError,
		})
		err := newClient(t, api).Sync(t.Context(), cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, fetcher.ErrRemoteUnavailable)
		assert.Contains(t, err.Error(), `create named map "foo"`)
		assert.Equal(t, 1, api.Count(http.MethodPost, collectionPath))
	})

	t.Run("update 500 fails immediately", func(t *testing.T) {
		t.Parallel()

		api := testutils.NewFakeNamedMapAPI(t, testutils.FakeOptions{UpdateStatus: http.StatusInternalServerError})
		err := newClient(t, api).Sync(t.Context(), cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, fetcher.ErrRemoteUnavailable)
		assert.Equal(t, 0, api.Count(http.MethodPost, collectionPath))

		code, ok := fetcher.StatusCode(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, code)
	})

	t.Run("other 4xx fails immediately", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict} {
			api := testutils.NewFakeNamedMapAPI(t, testutils.FakeOptions{UpdateStatus: status})
			err := newClient(t, api).Sync(t.Context(), cfg)
			require.Error(t, err, "status %d", status)
			assert.ErrorIs(t, err, fetcher.ErrRemoteRejected)
			assert.Equal(t, 0, api.Count(http.MethodPost, collectionPath), "status %d", status)
		}
	})

	t.Run("transport error fails immediately", func(t *testing.T) {
		t.Parallel()

		exec := &scriptedExecutor{errs: []error{&fetcher.TransportError{Method: "PUT", URI: "x", Err: errors.New("refused")}}}
		c := namedmap.NewClient(exec, "user", "key", "cartodb.com", logging.Discard())
		err := c.Sync(t.Context(), cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, fetcher.ErrTransport)
		assert.Equal(t, []string{http.MethodPut}, exec.methods)
	})

	t.Run("missing name", func(t *testing.T) {
		t.Parallel()

		exec := &scriptedExecutor{}
		c := namedmap.NewClient(exec, "user", "key", "cartodb.com", logging.Discard())
		err := c.Sync(t.Context(), namedmap.MapConfig{"version": "0.0.1"})
		assert.ErrorIs(t, err, namedmap.ErrMissingName)
		assert.Empty(t, exec.methods)
	})
}

// scriptedExecutor returns the queued errors in order and records methods and URIs.
type scriptedExecutor struct {
	errs    []error
	bodies  [][]byte
	methods []string
	uris    []string
}

func (s *scriptedExecutor) Execute(_ context.Context, method, uri string, _ map[string]string, _ any) ([]byte, error) {
	s.methods = append(s.methods, method)
	s.uris = append(s.uris, uri)
	i := len(s.methods) - 1
	var body []byte
	if i < len(s.bodies) {
		body = s.bodies[i]
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return body, nil
}
