package runner

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/socialsoftware/metricreg/metrics"
)

// ErrConfig is returned for an invalid configuration.
var ErrConfig = errors.New("runner: invalid configuration")

// Config selects the files to analyze and the models to fit.
type Config struct {

	// Directory the file names are relative to.
	DataDir string `yaml:"data_dir"`

	// Measurement files, analyzed in order.
	Files []string `yaml:"files"`

	// If true, every CSV file in DataDir is analyzed after Files.
	Discover bool `yaml:"discover"`

	// If true, files have no header line.
	NoHeader bool `yaml:"no_header"`

	// If true, header names must match the column names of the layout.
	// Columns are read by position either way.
	CheckHeader bool `yaml:"check_header"`

	// Outcomes, one model is fit for each.
	Targets []string `yaml:"targets"`

	// Covariates of every model, an intercept is always added.
	Predictors []string `yaml:"predictors"`

	// File layout, the default schema is used if empty.
	Columns []metrics.Column `yaml:"columns"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		DataDir: "./data/",
		Files:   []string{"58_3968.0_LdoD-test.csv"},
		Targets: []string{
			metrics.FieldComplexity,
			metrics.FieldCoupling,
			metrics.FieldCohesion,
			metrics.FieldPerformance,
		},
		Predictors: []string{
			metrics.FieldN,
			metrics.FieldA,
			metrics.FieldW,
			metrics.FieldR,
			metrics.FieldS,
		},
	}
}

// LoadConfig reads a YAML configuration file.  Settings missing from
// the file keep their default values.
func LoadConfig(path string) (Config, error) {

	cfg := DefaultConfig()

	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}

	return cfg, nil
}

// Schema returns the file layout.
func (cfg Config) Schema() metrics.Schema {
	if len(cfg.Columns) == 0 {
		return metrics.DefaultSchema()
	}
	return metrics.Schema{Columns: cfg.Columns}
}

// Validate checks that the configuration names known fields and at
// least one input.
func (cfg Config) Validate() error {

	if len(cfg.Files) == 0 && !cfg.Discover {
		return fmt.Errorf("%w: no input files", ErrConfig)
	}
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("%w: no targets", ErrConfig)
	}
	if len(cfg.Predictors) == 0 {
		return fmt.Errorf("%w: no predictors", ErrConfig)
	}

	known := make(map[string]bool)
	for _, f := range metrics.FieldNames {
		known[f] = true
	}

	preds := make(map[string]bool)
	for _, p := range cfg.Predictors {
		if !known[p] {
			return fmt.Errorf("%w: unknown predictor %q", ErrConfig, p)
		}
		if preds[p] {
			return fmt.Errorf("%w: predictor %q listed twice", ErrConfig, p)
		}
		preds[p] = true
	}

	for _, t := range cfg.Targets {
		if !known[t] {
			return fmt.Errorf("%w: unknown target %q", ErrConfig, t)
		}
		if preds[t] {
			return fmt.Errorf("%w: %q is both target and predictor", ErrConfig, t)
		}
	}

	if _, err := cfg.Schema().Positions(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}

	return nil
}
