package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/gi8lino/tilecarto/internal/config"
	"github.com/gi8lino/tilecarto/internal/handlers"
	"github.com/gi8lino/tilecarto/internal/utils"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/sync/errgroup"
)

// Result is one resolved source, as seen by the output template.
type Result struct {
	Name     string
	URI      string // redacted
	Template string
}

// targets merges configured sources with positional connection strings.
// Positional entries are named after their redacted URI.
func targets(cfg config.Config, uris []string) []config.Source {
	out := make([]config.Source, 0, len(cfg.Sources)+len(uris))
	out = append(out, cfg.Sources...)
	for _, u := range uris {
		out = append(out, config.Source{Name: utils.RedactURI(u), URI: u})
	}
	return out
}

// resolveAll resolves every source concurrently and returns results in input order.
// The first failure cancels the remaining resolutions.
func resolveAll(ctx context.Context, loader handlers.Loader, sources []config.Source) ([]Result, error) {
	results := make([]Result, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			ts, err := loader.Load(ctx, src.URI)
			if err != nil {
				return fmt.Errorf("resolve %q: %w", src.Name, err)
			}
			results[i] = Result{
				Name:     src.Name,
				URI:      utils.RedactURI(src.URI),
				Template: ts.Template(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// parseFormat builds the output template with sprig functions.
func parseFormat(format string) (*template.Template, error) {
	return template.New("format").Funcs(sprig.TxtFuncMap()).Parse(format)
}

// writeResults renders one line per result.
func writeResults(w io.Writer, tmpl *template.Template, results []Result) error {
	var sb strings.Builder
	for _, r := range results {
		sb.Reset()
		if err := tmpl.Execute(&sb, r); err != nil {
			return fmt.Errorf("render %q: %w", r.Name, err)
		}
		line := strings.TrimRight(sb.String(), "\n")
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
