package testutils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// APICall records one request received by NamedMapAPI.
type APICall struct {
	Method string
	Path   string
	APIKey string
	Body   map[string]any
}

// FakeOptions sets the status each endpoint answers with (0 means 200).
type FakeOptions struct {
	UpdateStatus      int
	CreateStatus      int
	InstantiateStatus int
	LayerGroupID      string        // default "abc123"
	InstantiateBody   string        // overrides the instantiate response body
	Delay             time.Duration // added before every response
}

// NamedMapAPI is an http.Handler mimicking the named-map API.
type NamedMapAPI struct {
	opts  FakeOptions
	mux   *http.ServeMux
	mu    sync.Mutex
	calls []APICall
}

// NewNamedMapAPI returns a handler answering according to opts.
func NewNamedMapAPI(opts FakeOptions) *NamedMapAPI {
	if opts.LayerGroupID == "" {
		opts.LayerGroupID = "abc123"
	}
	a := &NamedMapAPI{opts: opts, mux: http.NewServeMux()}

	a.mux.HandleFunc("PUT /api/v1/map/named/{name}", func(w http.ResponseWriter, r *http.Request) {
		a.record(r)
		a.reply(w, opts.UpdateStatus, fmt.Sprintf(`{"template_id":%q}`, r.PathValue("name")))
	})
	a.mux.HandleFunc("POST /api/v1/map/named", func(w http.ResponseWriter, r *http.Request) {
		call := a.record(r)
		name, _ := call.Body["name"].(string)
		a.reply(w, opts.CreateStatus, fmt.Sprintf(`{"template_id":%q}`, name))
	})
	a.mux.HandleFunc("POST /api/v1/map/named/{name}", func(w http.ResponseWriter, r *http.Request) {
		a.record(r)
		body := opts.InstantiateBody
		if body == "" {
			body = fmt.Sprintf(`{"layergroupid":%q,"last_updated":"2015-01-01T00:00:00.000Z"}`, opts.LayerGroupID)
		}
		a.reply(w, opts.InstantiateStatus, body)
	})
	return a
}

// ServeHTTP implements http.Handler.
func (a *NamedMapAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.opts.Delay > 0 {
		select {
		case <-time.After(a.opts.Delay):
		case <-r.Context().Done():
			return
		}
	}
	a.mux.ServeHTTP(w, r)
}

// Calls returns a copy of all recorded calls.
func (a *NamedMapAPI) Calls() []APICall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]APICall, len(a.calls))
	copy(out, a.calls)
	return out
}

// Count returns how many calls matched method and path.
func (a *NamedMapAPI) Count(method, path string) int {
	n := 0
	for _, c := range a.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (a *NamedMapAPI) record(r *http.Request) APICall {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	call := APICall{
		Method: r.Method,
		Path:   r.URL.Path,
		APIKey: r.URL.Query().Get("api_key"),
		Body:   body,
	}
	a.mu.Lock()
	a.calls = append(a.calls, call)
	a.mu.Unlock()
	return call
}

func (a *NamedMapAPI) reply(w http.ResponseWriter, status int, body string) {
	if status == 0 {
		status = http.StatusOK
	}
	if status != http.StatusOK {
		body = fmt.Sprintf(`{"errors":["status %d"]}`, status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// FakeNamedMapAPI is a NamedMapAPI behind an httptest server.
type FakeNamedMapAPI struct {
	*NamedMapAPI
	Server *httptest.Server
}

// NewFakeNamedMapAPI starts a fake API that is closed with the test.
func NewFakeNamedMapAPI(t *testing.T, opts FakeOptions) *FakeNamedMapAPI {
	t.Helper()

	api := NewNamedMapAPI(opts)
	f := &FakeNamedMapAPI{NamedMapAPI: api, Server: httptest.NewServer(api)}
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake API.
func (f *FakeNamedMapAPI) URL() string { return f.Server.URL }
