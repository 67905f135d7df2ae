// =============================================================================
// Census Bulk Importer - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration from
// a YAML file, applying defaults and environment overrides, and validating
// the result.
//
// PRECEDENCE (lowest to highest):
//   1. Built-in defaults
//   2. config.yaml
//   3. Environment variables (IMPORTER_*)
//   4. Command-line flags (applied by the cmd package)
//
// EXAMPLE config.yaml:
//   endpoint: http://localhost:8080/api/bulk-import
//   timeout: 30s
//   sheet: ""
//   archive_dir: ./imported
//   archive_subdirs: false
//   log_level: info
//   csv_settings:
//     delimiter: ";"
//   server:
//     addr: ":8080"
//     census_file: "CENSO GENERAL NUEVO.xlsx"
//     census_sheet: CENSO
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvEndpoint   = "IMPORTER_ENDPOINT"
	EnvLogLevel   = "IMPORTER_LOG_LEVEL"
	EnvCensusFile = "IMPORTER_CENSUS_FILE"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// CLIENT SETTINGS
	// =========================================================================

	// Endpoint is the URL the edited records are posted to.
	// Default: "http://localhost:8080/api/bulk-import"
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds one submission request, as a Go duration string.
	// Default: "30s"
	Timeout string `yaml:"timeout"`

	// RequestTimeout is Timeout parsed during validation.
	RequestTimeout time.Duration `yaml:"-"`

	// Sheet is the workbook sheet to import.
	// Default: "" (the first sheet)
	Sheet string `yaml:"sheet"`

	// ArchiveDir receives imported files after a successful submission.
	// Default: "./imported"
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveSubdirs files archived inputs under archive_dir/YYYY/MM/DD.
	// Default: false
	ArchiveSubdirs bool `yaml:"archive_subdirs"`

	// CSVSettings apply when the input file is a CSV export.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error", "fatal"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// SERVER SETTINGS
	// =========================================================================

	// Server configures the census receiver started by 'importer serve'.
	Server ServerConfig `yaml:"server"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), ";" (semicolon), "|" (pipe), "tab"
	// Default: ","
	Delimiter string `yaml:"delimiter"`
}

// ServerConfig configures the bulk-import receiver.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string `yaml:"addr"`

	// CensusFile is the workbook that imported rows are appended to.
	// Default: "CENSO GENERAL NUEVO.xlsx"
	CensusFile string `yaml:"census_file"`

	// CensusSheet is the sheet inside CensusFile.
	// Default: "CENSO"
	CensusSheet string `yaml:"census_sheet"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//   - mustExist: When false, a missing file yields the defaults instead of
//     an error. Set it when the user named the file explicitly.
//
// RETURNS:
//   - A pointer to the validated MainConfig.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string, mustExist bool) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !mustExist:
		// Fall through to defaults.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyMainConfigDefaults(&config)
	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.Endpoint == "" {
		config.Endpoint = "http://localhost:8080/api/bulk-import"
	}
	if config.Timeout == "" {
		config.Timeout = "30s"
	}
	if config.ArchiveDir == "" {
		config.ArchiveDir = "./imported"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ","
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.CensusFile == "" {
		config.Server.CensusFile = "CENSO GENERAL NUEVO.xlsx"
	}
	if config.Server.CensusSheet == "" {
		config.Server.CensusSheet = "CENSO"
	}
	if d, err := time.ParseDuration(config.Timeout); err == nil {
		config.RequestTimeout = d
	}
}

// applyEnvOverrides replaces file values with non-empty IMPORTER_* variables.
func (c *MainConfig) applyEnvOverrides() {
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvCensusFile); v != "" {
		c.Server.CensusFile = v
	}
}

// Validate checks values that defaults cannot repair and fills RequestTimeout.
func (c *MainConfig) Validate() error {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	c.RequestTimeout = d

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint %q: %w", c.Endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint %q must be an absolute http(s) URL", c.Endpoint)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	return nil
}
