package simulation

import (
	"errors"
	"fmt"
	"slices"
)

// SimulationConfig is the descriptor read from a simulation.yaml next to the
// simulation's entry point
type SimulationConfig struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Version     string      `yaml:"version"`
	Category    string      `yaml:"category"`
	Parameters  []Parameter `yaml:"parameters"`
}

// ParameterType names the value kind a parameter is prompted and parsed as
type ParameterType string

const (
	TypeInteger  ParameterType = "integer"
	TypeFloat    ParameterType = "float"
	TypeString   ParameterType = "string"
	TypeBoolean  ParameterType = "boolean"
	TypeDuration ParameterType = "duration"
)

// Parameter defines a configurable parameter for a simulation
type Parameter struct {
	Name        string        `yaml:"name"`
	Type        ParameterType `yaml:"type"`
	Description string        `yaml:"description"`
	Default     interface{}   `yaml:"default"`
	Required    bool          `yaml:"required"`
	Min         interface{}   `yaml:"min,omitempty"`
	Max         interface{}   `yaml:"max,omitempty"`
	Options     []string      `yaml:"options,omitempty"` // string enums
}

// Parameter returns the parameter with the given name
func (c *SimulationConfig) Parameter(name string) (Parameter, bool) {
	for _, p := range c.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Validate checks the descriptor is usable for prompting: a name, unique
// parameter names, known types, ordered bounds and defaults inside options.
func (c *SimulationConfig) Validate() error {
	if c.Name == "" {
		return errors.New("simulation name is required")
	}

	seen := make(map[string]bool, len(c.Parameters))
	for _, p := range c.Parameters {
		if p.Name == "" {
			return errors.New("parameter name is required")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate parameter %s", p.Name)
		}
		seen[p.Name] = true

		if err := p.validate(); err != nil {
			return fmt.Errorf("parameter %s: %w", p.Name, err)
		}
	}
	return nil
}

func (p Parameter) validate() error {
	switch p.Type {
	case TypeInteger, TypeFloat, TypeString, TypeBoolean, TypeDuration:
	default:
		return fmt.Errorf("unsupported type %q", p.Type)
	}

	lo, hasMin := number(p.Min)
	hi, hasMax := number(p.Max)
	if (p.Min != nil && !hasMin) || (p.Max != nil && !hasMax) {
		return errors.New("min and max must be numbers")
	}
	if hasMin && hasMax && lo > hi {
		return fmt.Errorf("min %v exceeds max %v", p.Min, p.Max)
	}

	if len(p.Options) > 0 {
		if p.Type != TypeString {
			return errors.New("options only apply to string parameters")
		}
		if def, ok := p.Default.(string); ok && !slices.Contains(p.Options, def) {
			return fmt.Errorf("default %q is not an option", def)
		}
	}
	return nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
