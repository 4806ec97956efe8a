package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gi8lino/tilecarto/internal/carto"
	"github.com/gi8lino/tilecarto/internal/config"
	"github.com/gi8lino/tilecarto/internal/fetcher"
	"github.com/gi8lino/tilecarto/internal/flag"
	"github.com/gi8lino/tilecarto/internal/logging"
	"github.com/gi8lino/tilecarto/internal/metrics"
	"github.com/gi8lino/tilecarto/internal/protocols"
	"github.com/gi8lino/tilecarto/internal/server"
	"github.com/gi8lino/tilecarto/internal/utils"

	"github.com/containeroo/tinyflags"
)

const defaultTimeout = 15 * time.Second

// Run starts tilecarto. It resolves the configured sources once and prints
// them, or serves them over HTTP with --serve.
func Run(ctx context.Context, version, commit string, args []string, w io.Writer, getEnv func(string) string) error {
	// Create a new context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Parse command-line flags
	flags, err := flag.ParseArgs(version, args, w, getEnv)
	if err != nil {
		if tinyflags.IsHelpRequested(err) || tinyflags.IsVersionRequested(err) {
			fmt.Fprint(w, err.Error()) // nolint:errcheck
			return nil
		}
		return fmt.Errorf("parsing error: %w", err)
	}

	// Setup logger
	logger := logging.SetupLogger(flags.LogFormat, flags.Debug, w)
	logger.Debug("Starting tilecarto", "version", version, "commit", commit)

	// Load config
	var cfg config.Config
	if flags.Config != "" {
		if cfg, err = config.LoadConfig(flags.Config); err != nil {
			return fmt.Errorf("loading config error: %w", err)
		}
	}
	if err := config.ResolveValues(&cfg); err != nil {
		return fmt.Errorf("resolving config error: %w", err)
	}
	if err := config.ValidateConfig(&cfg); err != nil {
		return fmt.Errorf("validating config error: %w", err)
	}

	// Flags and environment win over the config file
	defaults := carto.Defaults{
		Username: firstNonEmpty(flags.Username, cfg.Defaults.Username),
		APIKey:   firstNonEmpty(flags.APIKey, cfg.Defaults.APIKey),
		Hostname: firstNonEmpty(flags.Hostname, cfg.Defaults.Hostname),
	}
	timeout := defaultTimeout
	switch {
	case flags.Timeout > 0:
		timeout = flags.Timeout
	case cfg.Timeout > 0:
		timeout = cfg.Timeout
	}

	logger.Debug("carto defaults",
		"username", defaults.Username,
		"api_key", utils.ObfuscateKey(defaults.APIKey),
		"hostname", defaults.Hostname,
		"timeout", timeout,
		"file_mode", !flags.DisableFileMode,
	)

	// Wire fetcher, registry and resolver
	m := metrics.New()
	exec := fetcher.NewClient(fetcher.NewHTTPClient(fetcher.TransportOptions{
		Timeout:       timeout,
		SkipTLSVerify: flags.SkipTLSVerify,
	}), logger)
	exec.Observer = m

	reg := protocols.NewRegistry(logger)
	if err := protocols.RegisterTemplates(reg); err != nil {
		return err
	}

	opts := []carto.Option{
		carto.WithDefaults(defaults),
		carto.WithFileMode(!flags.DisableFileMode),
		carto.WithObserver(m),
	}
	if flags.APIURL != "" {
		api := flags.APIURL
		opts = append(opts, carto.WithEndpoint(func(string, string) string { return api }))
	}
	resolver := carto.NewResolver(exec, reg, logger, opts...)
	if err := carto.Register(reg, resolver); err != nil {
		return err
	}

	if flags.Serve {
		if len(flags.URIs) > 0 {
			return errors.New("positional connection strings are not supported with --serve; use sources in the config file")
		}
		router := server.NewRouter(cfg, reg, m.Handler(), logger, flags.Debug, flags.RoutePrefix)
		return server.RunHTTPServer(ctx, router, flags.ListenAddr, logger)
	}

	tmpl, err := parseFormat(flags.Format)
	if err != nil {
		return fmt.Errorf("format parse error: %w", err)
	}

	sources := targets(cfg, flags.URIs)
	if len(sources) == 0 {
		return errors.New("nothing to resolve: pass connection strings or configure sources")
	}

	results, err := resolveAll(ctx, reg, sources)
	if err != nil {
		return err
	}
	return writeResults(w, tmpl, results)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
