package world

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/warehouse/internal/core/observability/log"
	"github.com/zeusync/warehouse/internal/core/warehouse"
)

// Config describes a World.
type Config struct {
	// InitialCapacity preallocates room for that many entities in every storage.
	InitialCapacity int              `json:"initial_capacity" yaml:"initial_capacity"`
	Growth          warehouse.Growth `json:"growth" yaml:"growth"`
	LogLevel        string           `json:"log_level" yaml:"log_level"`
	// MetricsNamespace prefixes every exported metric name.
	MetricsNamespace string `json:"metrics_namespace" yaml:"metrics_namespace"`
}

func DefaultConfig() Config {
	return Config{
		InitialCapacity:  1024,
		Growth:           warehouse.GrowthLazy,
		LogLevel:         "info",
		MetricsNamespace: "warehouse",
	}
}

func (c Config) Validate() error {
	if c.InitialCapacity < 0 {
		return fmt.Errorf("%w: initial_capacity %d is negative", ErrInvalidConfig, c.InitialCapacity)
	}
	if c.Growth != warehouse.GrowthLazy && c.Growth != warehouse.GrowthEager {
		return fmt.Errorf("%w: growth %s", ErrInvalidConfig, c.Growth)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Level returns the configured log level. Validate reports unknown levels.
func (c Config) Level() log.Level {
	level, _ := log.ParseLevel(c.LogLevel)
	return level
}

// ParseConfig decodes YAML from r over the defaults and validates the result.
// An empty document yields the defaults.
func ParseConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("world: decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("world: open config: %w", err)
	}
	defer f.Close()

	return ParseConfig(f)
}
