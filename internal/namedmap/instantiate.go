package namedmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gi8lino/tilecarto/internal/fetcher"
)

// InstantiationResult is the outcome of instantiating a named map.
type InstantiationResult struct {
	LayerGroupID string
	StatusCode   int
}

type instantiateResponse struct {
	LayerGroupID string `json:"layergroupid"`
}

// Instantiate requests a fresh layer group for the named map.
func (c *Client) Instantiate(ctx context.Context, name string) (InstantiationResult, error) {
	if strings.TrimSpace(name) == "" {
		return InstantiationResult{}, ErrMissingName
	}

	body, err := c.exec.Execute(ctx, http.MethodPost, c.mapURL(name), c.authQuery(), struct{}{})
	if err != nil {
		return InstantiationResult{}, err
	}

	var resp instantiateResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&resp); err != nil {
		return InstantiationResult{}, c.malformed(name, body, fmt.Sprintf("invalid JSON: %v", err))
	}
	if resp.LayerGroupID == "" {
		return InstantiationResult{}, c.malformed(name, body, "missing layergroupid")
	}

	c.logger.Debug("named map instantiated", append(c.logAttrs(name), "layergroupid", resp.LayerGroupID)...)
	return InstantiationResult{
		LayerGroupID: resp.LayerGroupID,
		StatusCode:   http.StatusOK,
	}, nil
}

// malformed reports a 200 response that cannot be used.
func (c *Client) malformed(name string, body []byte, reason string) error {
	return fmt.Errorf("instantiate named map %q: %s: %w", name, reason, &fetcher.StatusError{
		Class:      fetcher.ErrUnexpectedResponse,
		Method:     http.MethodPost,
		URI:        c.mapURL(name),
		StatusCode: http.StatusOK,
		Body:       body,
	})
}
