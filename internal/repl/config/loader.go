package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of configuration files.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger: logger,
	}
}

// LoadResult contains the result of loading a configuration file.
type LoadResult struct {
	Config *Config
	Errors []error
}

// LoadFromFile loads configuration from a YAML file.
// Returns the configuration and any non-fatal errors encountered.
// If the file doesn't exist, returns default configuration with no error.
func (l *Loader) LoadFromFile(path string) (*LoadResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("no config file, using defaults", zap.String("path", path))
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return l.LoadFromString(string(content))
}

// LoadFromString loads configuration from YAML source. Parse errors fall back
// to the defaults and are reported in LoadResult.Errors.
func (l *Loader) LoadFromString(source string) (*LoadResult, error) {
	result := &LoadResult{
		Config: DefaultConfig(),
	}

	if strings.TrimSpace(source) == "" {
		return result, nil
	}

	parsed := DefaultConfig()
	if err := yaml.Unmarshal([]byte(source), parsed); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("parse error: %w", err))
		return result, nil
	}

	result.Errors = append(result.Errors, l.validate(parsed)...)
	result.Config = parsed
	return result, nil
}

// validate resets invalid fields to their defaults.
func (l *Loader) validate(cfg *Config) []error {
	var errs []error
	defaults := DefaultConfig()

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", cfg.LogLevel))
		cfg.LogLevel = defaults.LogLevel
	}

	if strings.TrimSpace(cfg.Picker.Command) == "" {
		cfg.Picker.Command = defaults.Picker.Command
	} else if _, err := shlex.Split(cfg.Picker.Command); err != nil {
		errs = append(errs, fmt.Errorf("picker.command: %w", err))
		cfg.Picker.Command = defaults.Picker.Command
	}
	if cfg.Picker.Height == "" {
		cfg.Picker.Height = defaults.Picker.Height
	}
	if cfg.Picker.PreviewWindow == "" {
		cfg.Picker.PreviewWindow = defaults.Picker.PreviewWindow
	}

	if cfg.Keys.HistorySearch == "" {
		cfg.Keys.HistorySearch = defaults.Keys.HistorySearch
	}
	if cfg.Keys.Complete == "" {
		cfg.Keys.Complete = defaults.Keys.Complete
	}

	for _, err := range errs {
		l.logger.Warn("invalid configuration value", zap.Error(err))
	}
	return errs
}
