package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/picogrid/swarm-foraging/pkg/config"
	"github.com/picogrid/swarm-foraging/pkg/logger"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Manage scenario presets",
	Long:  `Manage named presets (seed, swarm size, object and home positions) used by 'swarm-sim run --scenario'`,
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenario presets",
	RunE:  listScenarios,
}

var scenarioAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a scenario preset",
	RunE:  addScenario,
}

var scenarioRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a scenario preset",
	RunE:  removeScenario,
}

func init() {
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioAddCmd)
	scenarioCmd.AddCommand(scenarioRemoveCmd)
}

func listScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadScenarios()
	if err != nil {
		return fmt.Errorf("failed to load scenarios: %w", err)
	}

	if len(cfg.Scenarios) == 0 {
		fmt.Println("No scenarios configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSEED\tROBOTS\tLAYOUT\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t----\t------\t------\t-----------")

	for _, s := range cfg.Scenarios {
		robots := "default"
		if s.SwarmSize > 0 {
			robots = strconv.Itoa(s.SwarmSize)
		}
		layout := "random"
		if s.Object != nil && s.Home != nil {
			layout = fmt.Sprintf("(%.0f,%.0f) -> (%.0f,%.0f)", s.Object.X, s.Object.Y, s.Home.X, s.Home.Y)
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", s.Name, s.Seed, robots, layout, s.Description)
	}

	return w.Flush()
}

func addScenario(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadScenarios()
	if err != nil {
		return fmt.Errorf("failed to load scenarios: %w", err)
	}

	answers := struct {
		Name        string
		Description string
		Seed        string
		SwarmSize   string `survey:"swarm_size"`
		FixedLayout bool   `survey:"fixed_layout"`
	}{}

	questions := []*survey.Question{
		{
			Name:     "name",
			Prompt:   &survey.Input{Message: "Scenario name:"},
			Validate: survey.Required,
		},
		{
			Name:   "description",
			Prompt: &survey.Input{Message: "Description:"},
		},
		{
			Name:     "seed",
			Prompt:   &survey.Input{Message: "Random seed:", Default: "1"},
			Validate: uintValidator,
		},
		{
			Name:     "swarm_size",
			Prompt:   &survey.Input{Message: "Robots (0 keeps the configured size):", Default: "0"},
			Validate: uintValidator,
		},
		{
			Name:   "fixed_layout",
			Prompt: &survey.Confirm{Message: "Pin object and home positions?", Default: false},
		},
	}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	seed, _ := strconv.ParseUint(answers.Seed, 10, 64)
	size, _ := strconv.Atoi(answers.SwarmSize)
	scenario := config.Scenario{
		Name:        answers.Name,
		Description: answers.Description,
		Seed:        seed,
		SwarmSize:   size,
	}

	if answers.FixedLayout {
		if scenario.Object, err = askPoint("Object"); err != nil {
			return err
		}
		if scenario.Home, err = askPoint("Home base"); err != nil {
			return err
		}
	}

	if err := cfg.Add(scenario); err != nil {
		return err
	}

	if err := config.SaveScenarios(cfg); err != nil {
		return fmt.Errorf("failed to save scenarios: %w", err)
	}

	logger.Successf("Scenario %s added successfully", scenario.Name)
	return nil
}

func removeScenario(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadScenarios()
	if err != nil {
		return fmt.Errorf("failed to load scenarios: %w", err)
	}

	if len(cfg.Scenarios) == 0 {
		fmt.Println("No scenarios to remove")
		return nil
	}

	options := make([]string, len(cfg.Scenarios))
	for i, s := range cfg.Scenarios {
		options[i] = s.Name
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select scenario to remove:",
		Options: options,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return err
	}

	var confirm bool
	confirmPrompt := &survey.Confirm{
		Message: fmt.Sprintf("Remove scenario %s?", selected),
		Default: false,
	}
	if err := survey.AskOne(confirmPrompt, &confirm); err != nil {
		return err
	}
	if !confirm {
		fmt.Println("Removal cancelled")
		return nil
	}

	if err := cfg.Remove(selected); err != nil {
		return err
	}

	if err := config.SaveScenarios(cfg); err != nil {
		return fmt.Errorf("failed to save scenarios: %w", err)
	}

	logger.Successf("Scenario %s removed successfully", selected)
	return nil
}

func askPoint(label string) (*config.Point, error) {
	var x, y string
	if err := survey.AskOne(&survey.Input{Message: label + " x:"}, &x, survey.WithValidator(floatValidator)); err != nil {
		return nil, err
	}
	if err := survey.AskOne(&survey.Input{Message: label + " y:"}, &y, survey.WithValidator(floatValidator)); err != nil {
		return nil, err
	}
	px, _ := strconv.ParseFloat(x, 64)
	py, _ := strconv.ParseFloat(y, 64)
	return &config.Point{X: px, Y: py}, nil
}

func uintValidator(val interface{}) error {
	if _, err := strconv.ParseUint(fmt.Sprint(val), 10, 64); err != nil {
		return fmt.Errorf("enter a non-negative integer")
	}
	return nil
}

func floatValidator(val interface{}) error {
	if _, err := strconv.ParseFloat(fmt.Sprint(val), 64); err != nil {
		return fmt.Errorf("enter a number")
	}
	return nil
}
