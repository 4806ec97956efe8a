package protocols

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/gi8lino/tilecarto/internal/tilesource"
	"github.com/gi8lino/tilecarto/internal/utils"
)

// ErrUnsupportedScheme is returned for connection strings no handler accepts.
var ErrUnsupportedScheme = errors.New("unsupported scheme")

// ProtocolHandler resolves a connection string into a tile source.
type ProtocolHandler interface {
	Resolve(ctx context.Context, uri string) (tilesource.Source, error)
}

// Factory builds the handler registered for a scheme.
type Factory func() (ProtocolHandler, error)

// Registry maps schemes to handler factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry returns an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		factories: map[string]Factory{},
		logger:    logger,
	}
}

// Register binds scheme to factory. Registering a scheme twice is an error.
func (r *Registry) Register(scheme string, factory Factory) error {
	scheme = normalizeScheme(scheme)
	if scheme == "" {
		return errors.New("protocols: scheme is required")
	}
	if factory == nil {
		return fmt.Errorf("protocols: factory for %q is nil", scheme)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[scheme]; exists {
		return fmt.Errorf("protocols: scheme %q already registered", scheme)
	}
	r.factories[scheme] = factory
	return nil
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for s := range r.factories {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Load dispatches uri to the handler registered for its scheme.
func (r *Registry) Load(ctx context.Context, uri string) (tilesource.Source, error) {
	scheme, err := Scheme(uri)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	factory, ok := r.factories[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	handler, err := factory()
	if err != nil {
		return nil, fmt.Errorf("build handler for %q: %w", scheme, err)
	}

	r.logger.Debug("loading tile source", "scheme", scheme, "uri", utils.RedactURI(uri))
	return handler.Resolve(ctx, uri)
}

// Scheme extracts the lower-cased scheme of uri without parsing the rest.
func Scheme(uri string) (string, error) {
	i := strings.Index(uri, ":")
	if i <= 0 {
		return "", fmt.Errorf("%w: missing scheme", ErrUnsupportedScheme)
	}
	scheme := uri[:i]
	for j, c := range scheme {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case j > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return "", fmt.Errorf("%w: invalid scheme %q", ErrUnsupportedScheme, scheme)
		}
	}
	return normalizeScheme(scheme), nil
}

// normalizeScheme lower-cases and strips a trailing ":" as in "cartodb:".
func normalizeScheme(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ":")
}
