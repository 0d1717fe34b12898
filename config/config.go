// Package config loads the engine configuration from a json or yaml file
// with optional environment overrides (K_ prefix, __ as separator).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kfranzke/leitstelle/core/dispatch"
	"github.com/kfranzke/leitstelle/core/incident"
	"github.com/kfranzke/leitstelle/core/metrics"
	"github.com/kfranzke/leitstelle/core/patrol"
	"github.com/kfranzke/leitstelle/infra/mqtt"
	"github.com/kfranzke/leitstelle/infra/routing"
)

type Config struct {
	// Difficulty names a preset: rookie, regular or veteran.
	Difficulty string `json:"difficulty"`
	// GameSpeed multiplies sim time relative to wall time.
	GameSpeed float64 `json:"game_speed"`
	// TickHz is the simulation tick frequency.
	TickHz float64 `json:"tick_hz"`
	// ShiftHours bounds the shift length in sim hours; 0 means open ended.
	ShiftHours float64 `json:"shift_hours"`

	World    WorldConfig     `json:"world"`
	Dispatch dispatch.Config `json:"dispatch"`
	Incident incident.Config `json:"incident"`
	Patrol   patrol.Config   `json:"patrol"`
	Routing  routing.Config  `json:"routing"`
	Metrics  metrics.Config  `json:"metrics"`
	MQTT     mqtt.Config     `json:"mqtt"`
	API      APIConfig       `json:"api"`
	Logging  LoggingConfig   `json:"logging"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a ready-to-run configuration without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies the difficulty preset and fills unset fields.
func (c *Config) SetDefaults() {
	if c.Difficulty == "" {
		c.Difficulty = DifficultyRegular
	}
	if c.GameSpeed <= 0 {
		c.GameSpeed = 1
	}
	if c.TickHz <= 0 {
		c.TickHz = 10
	}
	ApplyPreset(c)
	c.World.SetDefaults()
	c.Dispatch.SetDefaults()
	c.Incident.SetDefaults()
	c.Patrol.SetDefaults()
	c.API.SetDefaults()
	c.Logging.SetDefaults()
	if len(c.Incident.Areas) == 0 {
		c.Incident.Areas = c.World.Areas
	}
}

// Validate checks mandatory fields.
func (c *Config) Validate() error {
	if _, ok := presets[c.Difficulty]; !ok {
		return fmt.Errorf("unknown difficulty %q", c.Difficulty)
	}
	if err := c.World.Validate(); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
