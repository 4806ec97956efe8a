package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/gi8lino/tilecarto/internal/protocols"

	"github.com/containeroo/resolver"
	"gopkg.in/yaml.v3"
)

var sourceNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// LoadConfig loads the configuration from the given path.
// An empty file yields an empty Config.
func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ResolveValues replaces env:, file: and similar references in the defaults
// with their resolved values.
func ResolveValues(cfg *Config) error {
	fields := []struct {
		name string
		dst  *string
	}{
		{"defaults.username", &cfg.Defaults.Username},
		{"defaults.apiKey", &cfg.Defaults.APIKey},
		{"defaults.hostname", &cfg.Defaults.Hostname},
	}
	for _, f := range fields {
		if *f.dst == "" {
			continue
		}
		v, err := resolver.ResolveVariable(*f.dst)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", f.name, err)
		}
		*f.dst = strings.TrimSpace(v)
	}
	return nil
}

// ValidateConfig checks the configuration and reports every problem at once.
func ValidateConfig(cfg *Config) error {
	var errs []string

	if cfg.Timeout < 0 {
		errs = append(errs, "timeout must be >= 0")
	}
	if h := cfg.Defaults.Hostname; h != "" && strings.ContainsAny(h, "/:@ ") {
		errs = append(errs, fmt.Sprintf("defaults.hostname %q must be a bare host name", h))
	}

	seen := make(map[string]int)
	for i, src := range cfg.Sources {
		label := fmt.Sprintf("sources[%d]", i)
		if src.Name != "" {
			label += fmt.Sprintf(" (%s)", src.Name)
		}

		switch {
		case src.Name == "":
			errs = append(errs, fmt.Sprintf("%s: name is required", label))
		case !sourceNamePattern.MatchString(src.Name):
			errs = append(errs, fmt.Sprintf("%s: name must match %s", label, sourceNamePattern))
		default:
			if prev, ok := seen[src.Name]; ok {
				errs = append(errs, fmt.Sprintf("%s: name already used by sources[%d]", label, prev))
			}
			seen[src.Name] = i
		}

		if src.URI == "" {
			errs = append(errs, fmt.Sprintf("%s: uri is required", label))
			continue
		}
		if _, err := protocols.Scheme(src.URI); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", label, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
