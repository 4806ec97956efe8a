package namedmap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gi8lino/tilecarto/internal/fetcher"
	"github.com/gi8lino/tilecarto/internal/hash"
)

// NotFoundStatus is what the named-map API answers to an update of a map
// that does not exist yet. Sync relies on it to decide when to create.
const NotFoundStatus = http.StatusBadRequest

// Update replaces the named map config.Name() with config.
func (c *Client) Update(ctx context.Context, config MapConfig) error {
	name := config.Name()
	if name == "" {
		return ErrMissingName
	}
	_, err := c.exec.Execute(ctx, http.MethodPut, c.mapURL(name), c.authQuery(), config)
	return err
}

// Create registers config as a new named map.
func (c *Client) Create(ctx context.Context, config MapConfig) error {
	if config.Name() == "" {
		return ErrMissingName
	}
	_, err := c.exec.Execute(ctx, http.MethodPost, c.collectionURL(), c.authQuery(), config)
	return err
}

// Sync makes sure the remote named map exists and matches config.
// It updates first and creates only when the update is rejected with NotFoundStatus.
func (c *Client) Sync(ctx context.Context, config MapConfig) error {
	name := config.Name()
	if name == "" {
		return ErrMissingName
	}

	attrs := c.logAttrs(name)
	if digest, err := hash.Any(config); err == nil {
		attrs = append(attrs, "digest", digest)
	}

	err := c.Update(ctx, config)
	if err == nil {
		c.logger.Debug("named map updated", attrs...)
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("update named map %q: %w", name, err)
	}

	c.logger.Debug("named map missing, creating", attrs...)
	if err := c.Create(ctx, config); err != nil {
		return fmt.Errorf("create named map %q: %w", name, err)
	}
	c.logger.Debug("named map created", attrs...)
	return nil
}

// isNotFound reports whether err is a rejection with NotFoundStatus.
func isNotFound(err error) bool {
	var se *fetcher.StatusError
	return errors.As(err, &se) &&
		errors.Is(se.Class, fetcher.ErrRemoteRejected) &&
		se.StatusCode == NotFoundStatus
}
