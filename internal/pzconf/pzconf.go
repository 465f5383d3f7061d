// Public domain.

// Package pzconf holds photoz run configuration.
//
// Values are layered.  Default supplies a base, a YAML file overrides it,
// PHOTOZ_ environment variables override the file, and command line flags
// applied by the caller override everything.  Validate checks the result.
package pzconf

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the environment variable prefix, as in PHOTOZ_FIT_THREADS.
const EnvPrefix = "PHOTOZ"

// Config is the complete run configuration.
type Config struct {
	Files       FilesConfig       `yaml:"files" envconfig:"FILES"`
	Fit         FitConfig         `yaml:"fit" envconfig:"FIT"`
	Calibration CalibrationConfig `yaml:"calibration" envconfig:"CALIBRATION"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Metrics     MetricsConfig     `yaml:"metrics" envconfig:"METRICS"`
}

// FilesConfig names input and output files.  An empty Output means
// standard output.
type FilesConfig struct {
	Grid        string `yaml:"grid" envconfig:"GRID" validate:"required"`
	Catalog     string `yaml:"catalog" envconfig:"CATALOG"`
	Corrections string `yaml:"corrections" envconfig:"CORRECTIONS"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	Pdf         bool   `yaml:"pdf" envconfig:"PDF"`
}

// FitConfig selects fitting strategies.
type FitConfig struct {
	Threads     int    `yaml:"threads" envconfig:"THREADS" validate:"gte=0"`
	Scale       string `yaml:"scale" envconfig:"SCALE" validate:"oneof=min-chi2 unit"`
	Likelihood  string `yaml:"likelihood" envconfig:"LIKELIHOOD" validate:"oneof=gaussian chi2"`
	Marginalize string `yaml:"marginalize" envconfig:"MARGINALIZE" validate:"oneof=Z EBV"`
}

// CalibrationConfig controls photometric correction calibration.
type CalibrationConfig struct {
	Enabled       bool    `yaml:"enabled" envconfig:"ENABLED"`
	MaxIterations int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" validate:"min=1"`
	Tolerance     float64 `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gte=0"`
	Aggregator    string  `yaml:"aggregator" envconfig:"AGGREGATOR" validate:"oneof=mean median weighted-mean weighted-median"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
}

// MetricsConfig enables the prometheus endpoint.  An empty Listen
// disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"LISTEN" validate:"omitempty,hostname_port"`
}

// Default returns the base configuration.
func Default() Config {
	return Config{
		Files: FilesConfig{Grid: "photoz.grid"},
		Fit: FitConfig{
			Scale:       "min-chi2",
			Likelihood:  "gaussian",
			Marginalize: "Z",
		},
		Calibration: CalibrationConfig{
			MaxIterations: 20,
			Tolerance:     1e-4,
			Aggregator:    "median",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("pzconf: invalid configuration")

// Load returns Default overlaid with file fn, if fn is not empty, then
// with the environment.  The result is not validated; apply flags, then
// call Validate.
func Load(fn string) (Config, error) {
	cfg := Default()
	if fn != "" {
		b, err := os.ReadFile(fn)
		if err != nil {
			return cfg, err
		}
		if err = yaml.UnmarshalStrict(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", fn, err)
		}
	}
	// unset variables leave fields alone
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
