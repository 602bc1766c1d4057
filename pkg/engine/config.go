package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/wildfunctions/evolving_images/pkg/alter"
	"github.com/wildfunctions/evolving_images/pkg/genome"
	"github.com/wildfunctions/evolving_images/pkg/strategy"
)

// Config holds all parameters for an evolutionary run.
type Config struct {
	Input       string `yaml:"input" toml:"input" json:"input"`
	OutDir      string `yaml:"output_dir" toml:"output_dir" json:"output_dir"`
	TelemetryDB string `yaml:"telemetry_db" toml:"telemetry_db" json:"telemetry_db,omitempty"`
	ImageGap    int    `yaml:"image_generation" toml:"image_generation" json:"image_generation"`

	Population  int   `yaml:"population" toml:"population" json:"population"`
	Generations int   `yaml:"generations" toml:"generations" json:"generations"` // <= 0 means unlimited
	Workers     int   `yaml:"workers" toml:"workers" json:"workers"`
	Seed        int64 `yaml:"seed" toml:"seed" json:"seed"` // 0 = random

	PolygonCount    int `yaml:"polygon_count" toml:"polygon_count" json:"polygon_count"`
	PolygonVertices int `yaml:"polygon_vertices" toml:"polygon_vertices" json:"polygon_vertices"`
	ReferenceSize   int `yaml:"reference_size" toml:"reference_size" json:"reference_size"`

	Strategy             string  `yaml:"strategy" toml:"strategy" json:"strategy"`
	TournamentSize       int     `yaml:"tournament_size" toml:"tournament_size" json:"tournament_size"`
	MutationRate         float32 `yaml:"mutation_rate" toml:"mutation_rate" json:"mutation_rate"`
	MutationMagnitude    float32 `yaml:"mutation_magnitude" toml:"mutation_magnitude" json:"mutation_magnitude"`
	MutatorProbability   float64 `yaml:"mutator_probability" toml:"mutator_probability" json:"mutator_probability"`
	Crossover            string  `yaml:"crossover" toml:"crossover" json:"crossover"` // "" disables recombination
	CrossoverProbability float64 `yaml:"crossover_probability" toml:"crossover_probability" json:"crossover_probability"`
	TargetFitness        float64 `yaml:"target_fitness" toml:"target_fitness" json:"target_fitness"` // 0 disables

	Format  string `yaml:"format" toml:"format" json:"format"` // "text" or "json"
	Verbose bool   `yaml:"verbose" toml:"verbose" json:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		OutDir:               "evolving-images",
		ImageGap:             100,
		Population:           50,
		Generations:          100_000,
		Workers:              runtime.NumCPU(),
		Seed:                 0, // 0 = random
		PolygonCount:         50,
		PolygonVertices:      4,
		ReferenceSize:        60,
		Strategy:             "tournament",
		TournamentSize:       3,
		MutationRate:         0.01,
		MutationMagnitude:    0.15,
		MutatorProbability:   1.0,
		Crossover:            "uniform",
		CrossoverProbability: 0.3,
		Format:               "text",
	}
}

// Shape returns the genome shape of the run.
func (c Config) Shape() genome.Shape {
	return genome.Shape{Polygons: c.PolygonCount, Vertices: c.PolygonVertices}
}

// LoadConfig reads a YAML or TOML file, chosen by extension, over the
// defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("config %s: unsupported format %q (use .yaml or .toml)", path, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that values are sane.
func (c Config) Validate() error {
	if err := c.Shape().Validate(); err != nil {
		return err
	}
	if c.Population < 2 {
		return fmt.Errorf("population must be >= 2, got %d", c.Population)
	}
	if c.ImageGap < 1 {
		return fmt.Errorf("image_generation must be >= 1, got %d", c.ImageGap)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation_rate %v out of [0,1]", c.MutationRate)
	}
	if c.MutationMagnitude < 0 {
		return fmt.Errorf("mutation_magnitude must be >= 0, got %v", c.MutationMagnitude)
	}
	if c.MutatorProbability < 0 || c.MutatorProbability > 1 {
		return fmt.Errorf("mutator_probability %v out of [0,1]", c.MutatorProbability)
	}
	if c.Crossover != "" {
		if _, err := alter.Get(c.Crossover, c.CrossoverProbability); err != nil {
			return err
		}
	}
	if _, err := strategy.Get(c.Strategy); err != nil {
		return err
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q (use text or json)", c.Format)
	}
	return nil
}
