// =============================================================================
// Excel to TXT Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// SOURCES (later sources win):
//   1. Built-in defaults
//   2. config.yaml (optional when the default path is used)
//   3. .env file in the working directory (optional)
//   4. EXCELTXT_* environment variables
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ginjaninja78/excel-to-txt/internal/fixedwidth"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration path used when --config is not set.
const DefaultConfigFile = "config.yaml"

// Environment variables that override the file.
const (
	EnvInputDir  = "EXCELTXT_INPUT_DIR"
	EnvOutputDir = "EXCELTXT_OUTPUT_DIR"
	EnvLogLevel  = "EXCELTXT_LOG_LEVEL"
	EnvPassword  = "EXCELTXT_PASSWORD"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for .xls, .xlsx and .csv files.
	// Default: "./entradas"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the generated TXT files.
	// Default: "./saidas"
	OutputDir string `yaml:"output_dir"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat names output files.
	// Placeholders:
	//   {stem}      - Input file name without extension
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	// Default: "{stem}.txt"
	OutputNameFormat string `yaml:"output_name_format"`

	// Overwrite replaces existing output files instead of skipping them.
	Overwrite bool `yaml:"overwrite"`

	// Layout holds the fixed-width interchange constants.
	Layout fixedwidth.Layout `yaml:"layout"`

	// =========================================================================
	// READER SETTINGS
	// =========================================================================

	Reader ReaderSettings `yaml:"reader"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files converted at once in
	// batch mode.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps a file going when validation reports errors.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// StrictValidation counts validation warnings as errors.
	// Default: false
	StrictValidation bool `yaml:"strict_validation"`

	// Password opens protected workbooks. Only read from the environment.
	Password string `yaml:"-"`
}

// ReaderSettings controls how spreadsheets are turned into tables.
type ReaderSettings struct {
	// Sheet is the worksheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// HeaderRows is the number of leading label rows. Labels are cosmetic.
	// Default: 1
	HeaderRows *int `yaml:"header_rows"`

	// CSVDelimiter separates fields in .csv input.
	// Default: ";"
	CSVDelimiter string `yaml:"csv_delimiter"`

	// CSVEncoding is the character set of .csv input.
	// Valid values: "UTF-8", "Windows-1252", "ISO-8859-1"
	// Default: "UTF-8"
	CSVEncoding string `yaml:"csv_encoding"`
}

// HeaderRowCount returns the configured header rows.
func (r ReaderSettings) HeaderRowCount() int {
	if r.HeaderRows == nil {
		return 1
	}
	return *r.HeaderRows
}

// ShouldContinueOnError reports whether validation errors are tolerated.
func (c *MainConfig) ShouldContinueOnError() bool {
	return c.ContinueOnError == nil || *c.ContinueOnError
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// LoadMainConfig loads the configuration from a YAML file and the environment.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. A missing file is only
//     an error when it is not DefaultConfigFile.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or the result is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && configPath == DefaultConfigFile:
		// Run on defaults.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnvironment(&config); err != nil {
		return nil, err
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnvironment loads .env (if present) and applies EXCELTXT_* overrides.
func applyEnvironment(config *MainConfig) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if v := os.Getenv(EnvInputDir); v != "" {
		config.InputDir = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		config.OutputDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
	}
	config.Password = os.Getenv(EnvPassword)

	return nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./entradas"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./saidas"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{stem}.txt"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}

	defaults := fixedwidth.DefaultLayout()
	if config.Layout.RecordType == "" {
		config.Layout.RecordType = defaults.RecordType
	}
	if config.Layout.Identifier == "" {
		config.Layout.Identifier = defaults.Identifier
	}
	if config.Layout.LineWidth == 0 {
		config.Layout.LineWidth = defaults.LineWidth
	}
	if config.Layout.InitialSequence == 0 {
		config.Layout.InitialSequence = defaults.InitialSequence
	}

	if config.Reader.CSVDelimiter == "" {
		config.Reader.CSVDelimiter = ";"
	}
	if config.Reader.CSVEncoding == "" {
		config.Reader.CSVEncoding = "UTF-8"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if err := config.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1")
	}
	if config.Reader.HeaderRowCount() < 0 {
		return fmt.Errorf("reader.header_rows cannot be negative")
	}
	if !strings.Contains(config.OutputNameFormat, "{") && config.OutputNameFormat != "" {
		return fmt.Errorf("output_name_format %q has no placeholder", config.OutputNameFormat)
	}
	return nil
}
