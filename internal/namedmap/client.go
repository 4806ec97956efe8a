package namedmap

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gi8lino/tilecarto/internal/logging"
	"github.com/gi8lino/tilecarto/internal/utils"
)

// Executor issues one JSON request and classifies the response.
// *fetcher.Client satisfies it.
type Executor interface {
	Execute(ctx context.Context, method, uri string, query map[string]string, body any) ([]byte, error)
}

// Client talks to the named-map API of one account on one host.
type Client struct {
	Username string
	APIKey   string
	Hostname string

	exec    Executor
	logger  *slog.Logger
	baseURL string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API root derived from username and hostname.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// NewClient returns a Client for username@hostname.
func NewClient(exec Executor, username, apiKey, hostname string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		Username: username,
		APIKey:   apiKey,
		Hostname: hostname,
		exec:     exec,
		logger:   logger,
		baseURL:  fmt.Sprintf("https://%s.%s", username, hostname),
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root used for requests.
func (c *Client) BaseURL() string { return c.baseURL }

// collectionURL is the endpoint used to create named maps.
func (c *Client) collectionURL() string {
	return c.baseURL + "/api/v1/map/named"
}

// mapURL is the endpoint of a single named map.
func (c *Client) mapURL(name string) string {
	return c.collectionURL() + "/" + url.PathEscape(name)
}

// authQuery returns the query carrying the API key.
func (c *Client) authQuery() map[string]string {
	return map[string]string{"api_key": c.APIKey}
}

// logAttrs identifies the account without leaking the key.
func (c *Client) logAttrs(name string) []any {
	return []any{
		"username", c.Username,
		"hostname", c.Hostname,
		"map", name,
		"api_key", utils.ObfuscateKey(c.APIKey),
	}
}
