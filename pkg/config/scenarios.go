package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Point is a board position in a scenario file
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Scenario is a named run preset. Object and Home pin the layout of every
// episode; when either is missing the layout is drawn at random.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Seed        uint64 `yaml:"seed"`
	SwarmSize   int    `yaml:"swarm_size,omitempty"`
	Object      *Point `yaml:"object,omitempty"`
	Home        *Point `yaml:"home,omitempty"`
}

// Params converts the preset into simulation parameter overrides
func (s Scenario) Params() map[string]interface{} {
	params := map[string]interface{}{"seed": int(s.Seed)}
	if s.SwarmSize > 0 {
		params["swarm_size"] = s.SwarmSize
	}
	if s.Object != nil && s.Home != nil {
		params["object_x"] = s.Object.X
		params["object_y"] = s.Object.Y
		params["home_x"] = s.Home.X
		params["home_y"] = s.Home.Y
	}
	return params
}

// Config holds the scenario presets
type Config struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Find returns the scenario with the given name
func (c *Config) Find(name string) (*Scenario, bool) {
	for i := range c.Scenarios {
		if c.Scenarios[i].Name == name {
			return &c.Scenarios[i], true
		}
	}
	return nil, false
}

// Add appends a scenario; names are unique
func (c *Config) Add(s Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if _, exists := c.Find(s.Name); exists {
		return fmt.Errorf("scenario %s already exists", s.Name)
	}
	c.Scenarios = append(c.Scenarios, s)
	return nil
}

// Remove deletes the named scenario
func (c *Config) Remove(name string) error {
	for i, s := range c.Scenarios {
		if s.Name == name {
			c.Scenarios = append(c.Scenarios[:i], c.Scenarios[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("scenario %s not found", name)
}

// ScenariosPath is $HOME/.swarm-sim/scenarios.yaml
func ScenariosPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".swarm-sim", "scenarios.yaml"), nil
}

// LoadScenarios loads scenario presets from the default location
func LoadScenarios() (*Config, error) {
	path, err := ScenariosPath()
	if err != nil {
		return nil, err
	}
	return LoadScenariosFromFile(path)
}

// LoadScenariosFromFile loads scenario presets from a specific file
func LoadScenariosFromFile(path string) (*Config, error) {
	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return getDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios file: %w", err)
	}

	return &config, nil
}

// SaveScenarios saves the scenario presets to the default location
func SaveScenarios(config *Config) error {
	path, err := ScenariosPath()
	if err != nil {
		return err
	}
	return SaveScenariosToFile(config, path)
}

// SaveScenariosToFile saves the scenario presets to path
func SaveScenariosToFile(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal scenarios: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scenarios file: %w", err)
	}

	return nil
}

// getDefaultConfig returns the built-in presets
func getDefaultConfig() *Config {
	return &Config{
		Scenarios: []Scenario{
			{
				Name:        "Random",
				Description: "Object and home drawn at random every episode",
				Seed:        1,
			},
			{
				Name:        "Corner to corner",
				Description: "Object in the top-right corner, home in the bottom-left",
				Seed:        1,
				Object:      &Point{X: 420, Y: 80},
				Home:        &Point{X: 60, Y: 420},
			},
			{
				Name:        "Short haul",
				Description: "Object placed next to the home base",
				Seed:        1,
				Object:      &Point{X: 120, Y: 380},
				Home:        &Point{X: 60, Y: 420},
			},
		},
	}
}
