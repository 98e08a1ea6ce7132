package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

// Settings is the startup configuration of a run.
type Settings struct {
	RenderDistance   int     `yaml:"render_distance" json:"render_distance"`
	ChunkSize        int     `yaml:"chunk_size" json:"chunk_size"`
	FieldOfView      float32 `yaml:"field_of_view" json:"field_of_view"`
	MouseSensitivity float32 `yaml:"mouse_sensitivity" json:"mouse_sensitivity"`
	Seed             int64   `yaml:"seed" json:"seed"`
	Backend          string  `yaml:"backend" json:"backend"`
	World            string  `yaml:"world" json:"world"`
	TickRate         int     `yaml:"tick_rate" json:"tick_rate"`
	AutosaveSeconds  int     `yaml:"autosave_seconds" json:"autosave_seconds"`
	EditsPerSecond   float64 `yaml:"edits_per_second" json:"edits_per_second"`
	ObserverAddr     string  `yaml:"observer_addr" json:"observer_addr"`
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		RenderDistance:   3,
		ChunkSize:        32,
		FieldOfView:      90,
		MouseSensitivity: 0.002,
		Seed:             1,
		Backend:          "gl",
		World:            "world.vxw",
		TickRate:         60,
		AutosaveSeconds:  60,
		EditsPerSecond:   10,
	}
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("settings.schema.json", strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("settings.schema.json")
	})
	return schema, schemaErr
}

// validateDoc checks a decoded document against the settings schema.
// The document is round-tripped through JSON so numbers have JSON types.
func validateDoc(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile settings schema: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

// Load reads a YAML settings file on top of Default. Unknown keys and
// out-of-range values are rejected.
func Load(path string) (Settings, error) {
	s := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if err := validateDoc(doc); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks s against the settings schema.
func (s Settings) Validate() error {
	return validateDoc(s)
}

// Apply publishes the runtime-adjustable parts of s.
func (s Settings) Apply() {
	SetRenderDistance(s.RenderDistance)
	SetMouseSensitivity(s.MouseSensitivity)
}
