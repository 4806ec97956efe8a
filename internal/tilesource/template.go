package tilesource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Placeholders every XYZ template must contain.
const (
	PlaceholderZ = "{z}"
	PlaceholderX = "{x}"
	PlaceholderY = "{y}"
)

// MaxZoom is the deepest zoom level accepted by TileURL.
const MaxZoom = 30

// ErrTileOutOfRange is returned for coordinates outside the tile pyramid.
var ErrTileOutOfRange = errors.New("tile out of range")

// Source is a loaded tile source.
type Source interface {
	// Template returns the XYZ URL template.
	Template() string
	// TileURL returns the URL of a single tile.
	TileURL(z, x, y int) (string, error)
}

// Template is a Source backed by an XYZ URL template.
type Template struct {
	template string
}

// NewTemplate validates tmpl and returns a Template source.
func NewTemplate(tmpl string) (*Template, error) {
	tmpl = strings.TrimSpace(tmpl)
	if tmpl == "" {
		return nil, errors.New("empty tile template")
	}
	var missing []string
	for _, p := range []string{PlaceholderZ, PlaceholderX, PlaceholderY} {
		if !strings.Contains(tmpl, p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("tile template %q is missing %s", tmpl, strings.Join(missing, ", "))
	}
	return &Template{template: tmpl}, nil
}

// Template returns the raw template.
func (t *Template) Template() string { return t.template }

// TileURL expands the template for z/x/y.
func (t *Template) TileURL(z, x, y int) (string, error) {
	if z < 0 || z > MaxZoom {
		return "", fmt.Errorf("%w: zoom %d not in [0,%d]", ErrTileOutOfRange, z, MaxZoom)
	}
	n := 1 << z
	if x < 0 || x >= n || y < 0 || y >= n {
		return "", fmt.Errorf("%w: %d/%d/%d", ErrTileOutOfRange, z, x, y)
	}
	r := strings.NewReplacer(
		PlaceholderZ, strconv.Itoa(z),
		PlaceholderX, strconv.Itoa(x),
		PlaceholderY, strconv.Itoa(y),
	)
	return r.Replace(t.template), nil
}
