package utils

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/picogrid/swarm-foraging/pkg/simulation"
	"golang.org/x/term"
)

// EnvPrefix prefixes parameter overrides, e.g. SWARM_EPISODES
const EnvPrefix = "SWARM_"

// SkipPrompts reports whether parameters must be resolved without asking:
// SWARM_SKIP_PROMPTS=true or stdin is not a terminal.
func SkipPrompts() bool {
	if os.Getenv(EnvPrefix+"SKIP_PROMPTS") == "true" {
		return true
	}
	return !term.IsTerminal(int(os.Stdin.Fd()))
}

// PromptForParameters prompts the user for simulation parameters
func PromptForParameters(params []simulation.Parameter) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for _, param := range params {
		value, err := promptForParameter(param)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", param.Name, err)
		}
		if value != nil {
			result[param.Name] = value
		}
	}

	return result, nil
}

// promptForParameter resolves one parameter. Without a terminal the
// SWARM_<NAME> variable, then the default, is used; otherwise the variable
// only replaces the default offered in the prompt.
func promptForParameter(param simulation.Parameter) (interface{}, error) {
	envKey := EnvPrefix + strings.ToUpper(param.Name)
	envValue := os.Getenv(envKey)

	if SkipPrompts() {
		if envValue != "" {
			v, err := parseEnvValue(envValue, param)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", envKey, err)
			}
			return v, nil
		}
		if param.Default != nil {
			return param.Default, nil
		}
		if param.Required {
			return nil, fmt.Errorf("required parameter %s not provided and no default available", param.Name)
		}
		return nil, nil
	}

	if envValue != "" {
		if parsed, err := parseEnvValue(envValue, param); err == nil {
			param.Default = parsed
		}
	}

	switch param.Type {
	case simulation.TypeInteger:
		return promptInteger(param)
	case simulation.TypeFloat:
		return promptFloat(param)
	case simulation.TypeString:
		return promptString(param)
	case simulation.TypeBoolean:
		return promptBoolean(param)
	case simulation.TypeDuration:
		return promptDuration(param)
	default:
		return nil, fmt.Errorf("unsupported parameter type: %s", param.Type)
	}
}

// parseEnvValue parses an environment value by parameter type and applies
// the same range and option checks as the interactive prompts
func parseEnvValue(value string, param simulation.Parameter) (interface{}, error) {
	switch param.Type {
	case simulation.TypeInteger:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		return n, checkRange(float64(n), param)
	case simulation.TypeFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		return f, checkRange(f, param)
	case simulation.TypeString:
		if len(param.Options) > 0 && !slices.Contains(param.Options, value) {
			return nil, fmt.Errorf("%q is not one of %s", value, strings.Join(param.Options, ", "))
		}
		return value, nil
	case simulation.TypeBoolean:
		return strconv.ParseBool(value)
	case simulation.TypeDuration:
		return time.ParseDuration(value)
	default:
		return nil, fmt.Errorf("unsupported parameter type: %s", param.Type)
	}
}

// checkRange enforces the descriptor's optional min and max
func checkRange(v float64, param simulation.Parameter) error {
	if param.Min != nil && v < toFloat64(param.Min) {
		return fmt.Errorf("value must be at least %v", param.Min)
	}
	if param.Max != nil && v > toFloat64(param.Max) {
		return fmt.Errorf("value must be at most %v", param.Max)
	}
	return nil
}

// numberValidator rejects input that does not parse or falls outside the
// range, so survey asks again instead of aborting the run
func numberValidator(param simulation.Parameter, integer bool) survey.Validator {
	return func(ans interface{}) error {
		str, _ := ans.(string)
		if integer {
			n, err := strconv.Atoi(str)
			if err != nil {
				return fmt.Errorf("invalid integer: %s", str)
			}
			return checkRange(float64(n), param)
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %s", str)
		}
		return checkRange(f, param)
	}
}

func promptInteger(param simulation.Parameter) (int, error) {
	defaultStr := ""
	if param.Default != nil {
		defaultStr = strconv.Itoa(toInt(param.Default))
	}

	var result string
	prompt := &survey.Input{Message: param.Description, Default: defaultStr}
	if err := survey.AskOne(prompt, &result, survey.WithValidator(numberValidator(param, true))); err != nil {
		return 0, err
	}
	return strconv.Atoi(result)
}

func promptFloat(param simulation.Parameter) (float64, error) {
	defaultStr := ""
	if param.Default != nil {
		defaultStr = fmt.Sprintf("%v", param.Default)
	}

	var result string
	prompt := &survey.Input{Message: param.Description, Default: defaultStr}
	if err := survey.AskOne(prompt, &result, survey.WithValidator(numberValidator(param, false))); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(result, 64)
}

func promptString(param simulation.Parameter) (string, error) {
	defaultStr := ""
	if param.Default != nil {
		defaultStr = fmt.Sprintf("%v", param.Default)
	}

	// If options are provided, use a select prompt
	if len(param.Options) > 0 {
		prompt := &survey.Select{
			Message: param.Description,
			Options: param.Options,
			Default: defaultStr,
		}

		var result string
		if err := survey.AskOne(prompt, &result); err != nil {
			return "", err
		}
		return result, nil
	}

	// Otherwise use input prompt
	prompt := &survey.Input{
		Message: param.Description,
		Default: defaultStr,
	}

	var result string
	var validators []survey.Validator
	if param.Required {
		validators = append(validators, survey.Required)
	}

	if err := survey.AskOne(prompt, &result, survey.WithValidator(survey.ComposeValidators(validators...))); err != nil {
		return "", err
	}

	return result, nil
}

func promptBoolean(param simulation.Parameter) (bool, error) {
	defaultBool := false
	if param.Default != nil {
		switch v := param.Default.(type) {
		case bool:
			defaultBool = v
		case string:
			defaultBool = v == "true" || v == "yes" || v == "1"
		}
	}

	prompt := &survey.Confirm{
		Message: param.Description,
		Default: defaultBool,
	}

	var result bool
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}

	return result, nil
}

func promptDuration(param simulation.Parameter) (time.Duration, error) {
	defaultStr := ""
	if param.Default != nil {
		defaultStr = fmt.Sprintf("%v", param.Default)
	}

	prompt := &survey.Input{
		Message: param.Description + " (e.g., 5m, 1h30m, 30s)",
		Default: defaultStr,
	}

	var result string
	if err := survey.AskOne(prompt, &result, survey.WithValidator(func(val interface{}) error {
		str := val.(string)
		_, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("invalid duration format (use formats like 5m, 1h30m, 30s)")
		}
		return nil
	})); err != nil {
		return 0, err
	}

	duration, err := time.ParseDuration(result)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}

// Helper functions
func toInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(val)
		return i
	default:
		return 0
	}
}

func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}
