package carto

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gi8lino/tilecarto/internal/logging"
	"github.com/gi8lino/tilecarto/internal/namedmap"
	"github.com/gi8lino/tilecarto/internal/tilesource"
	"github.com/gi8lino/tilecarto/internal/utils"

	"github.com/google/uuid"
)

// Loader hands a tile template or connection string to whatever serves tiles.
// *protocols.Registry satisfies it.
type Loader interface {
	Load(ctx context.Context, uri string) (tilesource.Source, error)
}

// ConfigLoader reads a map config document.
type ConfigLoader interface {
	LoadMapConfig(path string) (namedmap.MapConfig, error)
}

// ConfigLoaderFunc adapts a function to ConfigLoader.
type ConfigLoaderFunc func(path string) (namedmap.MapConfig, error)

func (f ConfigLoaderFunc) LoadMapConfig(path string) (namedmap.MapConfig, error) { return f(path) }

// FileConfigLoader loads JSON or YAML documents from disk.
type FileConfigLoader struct{}

// LoadMapConfig resolves path to an absolute file and loads it.
func (FileConfigLoader) LoadMapConfig(path string) (namedmap.MapConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return namedmap.LoadMapConfig(abs)
}

// Observer is notified once per finished resolution.
type Observer interface {
	ObserveResolution(mode Mode, err error)
}

// Resolver turns connection descriptors into tile sources.
// A Resolver holds no per-resolution state and is safe for concurrent use.
type Resolver struct {
	exec     namedmap.Executor
	loader   Loader
	configs  ConfigLoader
	defaults Defaults
	fileMode bool
	endpoint func(username, hostname string) string
	observer Observer
	logger   *slog.Logger
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithDefaults sets the fallback credentials and hostname.
func WithDefaults(d Defaults) Option { return func(r *Resolver) { r.defaults = d } }

// WithFileMode enables or disables cartodb+file resolution (enabled by default).
func WithFileMode(enabled bool) Option { return func(r *Resolver) { r.fileMode = enabled } }

// WithConfigLoader replaces the file based map config loader.
func WithConfigLoader(l ConfigLoader) Option { return func(r *Resolver) { r.configs = l } }

// WithEndpoint overrides the named-map API root for username@hostname.
func WithEndpoint(fn func(username, hostname string) string) Option {
	return func(r *Resolver) { r.endpoint = fn }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option { return func(r *Resolver) { r.observer = o } }

// NewResolver returns a Resolver issuing requests through exec and delegating to loader.
func NewResolver(exec namedmap.Executor, loader Loader, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		exec:     exec,
		loader:   loader,
		configs:  FileConfigLoader{},
		fileMode: true,
		logger:   logger,
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FileMode reports whether cartodb+file connection strings are accepted.
func (r *Resolver) FileMode() bool { return r.fileMode }

// ResolveURI parses raw and resolves it.
func (r *Resolver) ResolveURI(ctx context.Context, raw string) (tilesource.Source, error) {
	run := r.newRun()
	run.enter(StateParsing, "uri", utils.RedactURI(raw))

	d, err := ParseURI(raw)
	if err != nil {
		return nil, r.finish(run, modeUnknown, err)
	}
	return r.resolve(ctx, run, d)
}

// Resolve resolves a pre-built descriptor.
func (r *Resolver) Resolve(ctx context.Context, d Descriptor) (tilesource.Source, error) {
	run := r.newRun()
	run.enter(StateParsing, "mode", d.Mode)
	return r.resolve(ctx, run, d)
}

func (r *Resolver) resolve(ctx context.Context, run *resolution, d Descriptor) (tilesource.Source, error) {
	if d.Mode == ModeByConfig && !r.fileMode {
		return nil, r.finish(run, d.Mode, fmt.Errorf("%w: %q is disabled", ErrUnsupportedScheme, SchemeByConfig))
	}

	run.enter(StateValidating)
	d, err := d.withDefaults(r.defaults)
	if err != nil {
		return nil, r.finish(run, d.Mode, err)
	}

	var src tilesource.Source
	switch d.Mode {
	case ModeByConfig:
		src, err = r.byConfig(ctx, run, d)
	default:
		src, err = r.byName(ctx, run, d)
	}
	if err != nil {
		return nil, r.finish(run, d.Mode, err)
	}
	_ = r.finish(run, d.Mode, nil)
	return src, nil
}

// byName instantiates the named map and delegates the built template.
func (r *Resolver) byName(ctx context.Context, run *resolution, d Descriptor) (tilesource.Source, error) {
	run.enter(StateByName, "map", d.MapName, "hostname", d.Hostname)
	client := r.client(d, run.logger)

	run.enter(StateInstantiating)
	res, err := client.Instantiate(ctx, d.MapName)
	if err != nil {
		return nil, err
	}

	run.enter(StateBuildingTemplate, "layergroupid", res.LayerGroupID)
	tmpl := BuildTemplate(d.Username, d.Hostname, res.LayerGroupID, d.Scale)

	run.enter(StateDelegating, "template", tmpl)
	return r.load(ctx, tmpl)
}

// byConfig syncs the map config and delegates a by-name connection string.
func (r *Resolver) byConfig(ctx context.Context, run *resolution, d Descriptor) (tilesource.Source, error) {
	run.enter(StateByConfig, "config", d.ConfigPath, "hostname", d.Hostname)

	cfg := d.MapConfig
	if cfg == nil {
		loaded, err := r.configs.LoadMapConfig(d.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrConfigLoad, d.ConfigPath, err)
		}
		cfg = loaded
	}
	if cfg.Name() == "" {
		return nil, fmt.Errorf("%w %q: %w", ErrConfigLoad, d.ConfigPath, namedmap.ErrMissingName)
	}

	if err := r.client(d, run.logger).Sync(ctx, cfg); err != nil {
		return nil, err
	}

	next := Descriptor{
		Mode:     ModeByName,
		Username: d.Username,
		APIKey:   d.APIKey,
		Hostname: d.Hostname,
		MapName:  cfg.Name(),
		Scale:    d.Scale,
	}
	conn := next.ConnectionString()

	run.enter(StateDelegating, "uri", utils.RedactURI(conn))
	return r.load(ctx, conn)
}

// load delegates to the configured Loader.
func (r *Resolver) load(ctx context.Context, uri string) (tilesource.Source, error) {
	if r.loader == nil {
		return selfLoader{r}.Load(ctx, uri)
	}
	return r.loader.Load(ctx, uri)
}

// client builds a named-map client for the descriptor's account.
func (r *Resolver) client(d Descriptor, logger *slog.Logger) *namedmap.Client {
	var opts []namedmap.Option
	if r.endpoint != nil {
		opts = append(opts, namedmap.WithBaseURL(r.endpoint(d.Username, d.Hostname)))
	}
	return namedmap.NewClient(r.exec, d.Username, d.APIKey, d.Hostname, logger, opts...)
}

func (r *Resolver) newRun() *resolution {
	id := uuid.NewString()
	return &resolution{id: id, logger: r.logger.With("resolution", id)}
}

// finish logs the terminal state, notifies the observer and returns err unchanged.
func (r *Resolver) finish(run *resolution, mode Mode, err error) error {
	if err != nil {
		run.logger.Debug("resolution failed", "state", StateFailed, "failed_in", run.state, "error", err)
	} else {
		run.enter(StateDone)
	}
	if r.observer != nil {
		r.observer.ObserveResolution(mode, err)
	}
	return err
}

// resolution tracks the state of one in-flight resolution.
type resolution struct {
	id     string
	state  State
	logger *slog.Logger
}

func (run *resolution) enter(s State, attrs ...any) {
	run.state = s
	run.logger.Debug("resolution state", append([]any{"state", s}, attrs...)...)
}

// selfLoader resolves cartodb:// strings with the same Resolver and
// wraps anything else as a plain template. Used when no Loader is set.
type selfLoader struct{ r *Resolver }

func (l selfLoader) Load(ctx context.Context, uri string) (tilesource.Source, error) {
	d, err := ParseURI(uri)
	if err == nil && d.Mode == ModeByName {
		return l.r.Resolve(ctx, d)
	}
	return tilesource.NewTemplate(uri)
}
