package namedmap

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"sigs.k8s.io/yaml"
)

// ErrMissingName is returned when a map config or map name is empty.
var ErrMissingName = errors.New("named map name is required")

//go:embed schema/mapconfig.json
var mapConfigSchema []byte

const schemaURL = "mapconfig.schema.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// MapConfig is a declarative named-map definition sent verbatim to the API.
type MapConfig map[string]any

// Name returns the "name" field, or "" when absent.
func (m MapConfig) Name() string {
	s, _ := m["name"].(string)
	return s
}

// LoadMapConfig reads a JSON or YAML document from path and validates it.
func LoadMapConfig(path string) (MapConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map config: %w", err)
	}
	return ParseMapConfig(raw)
}

// ParseMapConfig decodes a JSON or YAML document and validates it.
func ParseMapConfig(raw []byte) (MapConfig, error) {
	js, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode map config: %w", err)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode map config: %w", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("map config must be an object, got %T", doc)
	}

	if err := Validate(MapConfig(obj)); err != nil {
		return nil, err
	}
	return MapConfig(obj), nil
}

// Validate checks m against the embedded map config schema.
func Validate(m MapConfig) error {
	sch, err := schema()
	if err != nil {
		return fmt.Errorf("compile map config schema: %w", err)
	}
	if err := sch.Validate(map[string]any(m)); err != nil {
		return fmt.Errorf("invalid map config: %w", err)
	}
	return nil
}

// schema compiles the embedded schema once.
func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(mapConfigSchema))
		if err != nil {
			compileErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}
