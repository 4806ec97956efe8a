package app

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gi8lino/tilecarto/internal/config"
	"github.com/gi8lino/tilecarto/internal/tilesource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcLoader func(ctx context.Context, uri string) (tilesource.Source, error)

func (f funcLoader) Load(ctx context.Context, uri string) (tilesource.Source, error) { return f(ctx, uri) }

func TestTargets(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Sources: []config.Source{{Name: "a", URI: "cartodb:///a"}}}
	got := targets(cfg, []string{"cartodb://u:secretkey@h/b"})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "cartodb://u:secretkey@h/b", got[1].URI)
	assert.NotContains(t, got[1].Name, "secretkey")
}

func TestResolveAll(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order", func(t *testing.T) {
		t.Parallel()

		loader := funcLoader(func(_ context.Context, uri string) (tilesource.Source, error) {
			return tilesource.NewTemplate("https://" + uri + "/{z}/{x}/{y}.png")
		})
		sources := []config.Source{{Name: "1", URI: "one"}, {Name: "2", URI: "two"}, {Name: "3", URI: "three"}}

		results, err := resolveAll(t.Context(), loader, sources)
		require.NoError(t, err)
		require.Len(t, results, 3)
		for i, want := range []string{"one", "two", "three"} {
			assert.Equal(t, sources[i].Name, results[i].Name)
			assert.Equal(t, "https://"+want+"/{z}/{x}/{y}.png", results[i].Template)
		}
	})

	t.Run("first error cancels the rest", func(t *testing.T) {
		t.Parallel()

		var cancelled atomic.Int32
		loader := funcLoader(func(ctx context.Context, uri string) (tilesource.Source, error) {
			if uri == "bad" {
				return nil, errors.New("boom")
			}
			<-ctx.Done()
			cancelled.Add(1)
			return nil, ctx.Err()
		})
		sources := []config.Source{{Name: "slow", URI: "slow"}, {Name: "bad", URI: "bad"}}

		_, err := resolveAll(t.Context(), loader, sources)
		require.Error(t, err)
		assert.EqualError(t, err, `resolve "bad": boom`)
		assert.Equal(t, int32(1), cancelled.Load())
	})
}

func TestWriteResults(t *testing.T) {
	t.Parallel()

	tmpl, err := parseFormat(`{{ .Name }}={{ .Template | trimSuffix ".png" }}{{ "\n" }}`)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeResults(&out, tmpl, []Result{{Name: "a", Template: "x.png"}, {Name: "b", Template: "y.png"}}))
	assert.Equal(t, "a=x\nb=y\n", out.String())
}
