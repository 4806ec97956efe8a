package fetcher

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// RequestSpec describes a single HTTP request the client should execute.
type RequestSpec struct {
	Method string
	URI    string
	Query  map[string]string
	Body   any // encoded as JSON; nil is sent as {}
}

// Normalize canonicalizes the method and returns the absolute URL with the query merged in.
func (r *RequestSpec) Normalize() (method string, u *url.URL, err error) {
	method = canonicalMethod(r.Method)

	u, err = url.Parse(strings.TrimSpace(r.URI))
	if err != nil {
		return "", nil, err
	}
	if !u.IsAbs() {
		return "", nil, &url.Error{Op: "parse", URL: r.URI, Err: errNotAbsolute}
	}

	mergeQuery(u, r.Query)
	return method, u, nil
}

// canonicalMethod returns an upper-cased HTTP method or GET if empty.
func canonicalMethod(m string) string {
	m = strings.TrimSpace(m)
	if m == "" {
		return http.MethodGet
	}
	return strings.ToUpper(m)
}

// mergeQuery merges kv into u.Query() in a deterministic way and updates u.RawQuery.
// Empty keys are ignored; empty values are skipped to avoid surprising "?k=" entries.
func mergeQuery(u *url.URL, kv map[string]string) {
	if u == nil || len(kv) == 0 {
		return
	}
	q := u.Query()

	keys := make([]string, 0, len(kv))
	for k := range kv {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if v := kv[k]; v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
}

// redactedURL returns u without query and userinfo, safe to log.
func redactedURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	cp := *u
	cp.RawQuery = ""
	cp.User = nil
	return cp.String()
}
