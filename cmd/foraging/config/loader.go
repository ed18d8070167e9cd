package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/picogrid/swarm-foraging/pkg/logger"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SWARM_"

// LoadConfig loads configuration from a YAML file. Keys missing from the file keep
// their default values.
func LoadConfig(path string) (*SimulationConfig, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault loads config from file or returns default, with environment overrides
func LoadConfigOrDefault(path string) (*SimulationConfig, error) {
	var config *SimulationConfig
	var err error

	if path != "" {
		config, err = LoadConfig(path)
		if err != nil {
			logger.Warnf("Could not load config from %s: %v", path, err)
			config = nil
		}
	}

	// Try default locations if no config loaded yet
	if config == nil {
		defaultPaths := []string{
			"config.yaml",
			"foraging.yaml",
			filepath.Join("cmd", "foraging", "config.yaml"),
		}

		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				config, err = LoadConfig(p)
				if err == nil {
					logger.Infof("Loaded config from: %s", p)
					break
				}
			}
		}
	}

	if config == nil {
		logger.Info("Using default configuration")
		config = GetDefaultConfig()
	}

	// Always apply environment variable overrides
	MergeWithEnvironment(config)

	return config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *SimulationConfig, path string) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// MergeWithCLIOverrides applies CLI parameter overrides to the configuration.
// Prompted values arrive as int, float64 or string depending on their source.
func MergeWithCLIOverrides(config *SimulationConfig, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "episodes":
			if n, ok := toInt(value); ok && n > 0 {
				config.Simulation.Episodes = n
			}
		case "seed":
			if n, ok := toInt(value); ok && n >= 0 {
				config.Simulation.Seed = uint64(n)
			}
		case "max_steps":
			if n, ok := toInt(value); ok && n > 0 {
				config.Simulation.MaxStepsPerEpisode = n
			}
		case "swarm_size":
			if n, ok := toInt(value); ok && n > 0 {
				config.Swarm.Size = n
			}
		case "policy":
			if p, ok := value.(string); ok && oneOf(p, validPolicies) {
				config.Policy.Type = p
			}
		case "epsilon":
			if eps, ok := toFloat(value); ok && eps >= 0 && eps <= 1 {
				config.Policy.Epsilon = eps
				if config.Policy.EpsilonMin > eps {
					config.Policy.EpsilonMin = eps
				}
			}
		case "epsilon_decay":
			if d, ok := toFloat(value); ok && d > 0 && d <= 1 {
				config.Policy.EpsilonDecay = d
			}
		case "rotation_method":
			if m, ok := value.(string); ok {
				config.Fuzzy.RotationMethod = m
			}
		case "translation_method":
			if m, ok := value.(string); ok {
				config.Fuzzy.TranslationMethod = m
			}
		case "sensor_noise":
			if on, ok := value.(bool); ok && !on {
				config.Sensor.DistanceSigma = 0
				config.Sensor.AngleSigma = 0
			}
		case "verbose":
			if verbose, ok := value.(bool); ok {
				config.Logging.Verbose = verbose
			}
		case "enable_report":
			if enable, ok := value.(bool); ok {
				config.Logging.EnableReport = enable
			}
		case "report_format":
			if f, ok := value.(string); ok && oneOf(f, validReportFormats) {
				config.Logging.ReportFormat = f
			}
		case "report_output_path":
			if p, ok := value.(string); ok && p != "" {
				config.Logging.ReportOutputPath = p
			}
		case "log_level":
			if level, ok := value.(string); ok && oneOf(strings.ToLower(level), validLevels) {
				config.Logging.ConsoleLevel = strings.ToLower(level)
			}
		}
	}
}

// LoadConfigWithOverrides loads config and applies both environment and CLI overrides
func LoadConfigWithOverrides(path string, cliOverrides map[string]interface{}) (*SimulationConfig, error) {
	config, err := LoadConfigOrDefault(path)
	if err != nil {
		return nil, err
	}

	// Apply CLI overrides after environment variables
	if cliOverrides != nil {
		MergeWithCLIOverrides(config, cliOverrides)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed after overrides: %w", err)
	}

	return config, nil
}

// MergeWithEnvironment merges config with SWARM_* environment variables
func MergeWithEnvironment(config *SimulationConfig) {
	if v := getenv("EPISODES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Simulation.Episodes = n
		}
	}

	if v := getenv("SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}

	if v := getenv("MAX_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Simulation.MaxStepsPerEpisode = n
		}
	}

	if v := getenv("SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Swarm.Size = n
		}
	}

	if v := getenv("POLICY"); v != "" {
		if p := strings.ToLower(v); oneOf(p, validPolicies) {
			config.Policy.Type = p
		}
	}

	if v := getenv("EPSILON"); v != "" {
		if eps, err := strconv.ParseFloat(v, 64); err == nil && eps >= 0 && eps <= 1 {
			config.Policy.Epsilon = eps
			if config.Policy.EpsilonMin > eps {
				config.Policy.EpsilonMin = eps
			}
		}
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if level := strings.ToLower(v); oneOf(level, validLevels) {
			config.Logging.ConsoleLevel = level
		}
	}

	if v := getenv("VERBOSE"); v != "" {
		if verbose, err := strconv.ParseBool(v); err == nil {
			config.Logging.Verbose = verbose
		}
	}

	if v := getenv("ENABLE_REPORT"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			config.Logging.EnableReport = enable
		}
	}

	if v := getenv("REPORT_FORMAT"); v != "" {
		if f := strings.ToLower(v); oneOf(f, validReportFormats) {
			config.Logging.ReportFormat = f
		}
	}

	if v := getenv("REPORT_OUTPUT_PATH"); v != "" {
		config.Logging.ReportOutputPath = v
	}
}

func getenv(key string) string { return os.Getenv(EnvPrefix + key) }

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
