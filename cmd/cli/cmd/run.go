package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/picogrid/swarm-foraging/pkg/config"
	"github.com/picogrid/swarm-foraging/pkg/logger"
	"github.com/picogrid/swarm-foraging/pkg/simulation"
	"github.com/picogrid/swarm-foraging/pkg/utils"

	// Import simulations to register them
	_ "github.com/picogrid/swarm-foraging/cmd/foraging/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Long: `Run a simulation interactively or with specified parameters.

Parameters are prompted for unless a parameters file is given, stdin is not a
terminal or SWARM_SKIP_PROMPTS=true; SWARM_<PARAM> variables supply values.`,
	RunE: runSimulation,
}

// flags forwarded to the simulation when set on the command line, in the
// environment or in the config file
var runOverrides = []string{"episodes", "seed", "policy", "swarm_size"}

func init() {
	runCmd.Flags().StringP("simulation", "s", "", "simulation name to run")
	runCmd.Flags().StringP("params", "p", "", "parameters file (YAML)")
	runCmd.Flags().String("scenario", "", "scenario preset to apply (see 'swarm-sim scenario list')")
	runCmd.Flags().IntP("episodes", "n", 0, "number of episodes")
	runCmd.Flags().Int("seed", 0, "random seed")
	runCmd.Flags().String("policy", "", "action policy (epsilon_greedy, heuristic, random)")
	runCmd.Flags().Int("swarm-size", 0, "robots per swarm")

	_ = viper.BindPFlag("episodes", runCmd.Flags().Lookup("episodes"))
	_ = viper.BindPFlag("seed", runCmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("policy", runCmd.Flags().Lookup("policy"))
	_ = viper.BindPFlag("swarm_size", runCmd.Flags().Lookup("swarm-size"))
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	simName, err := selectSimulation(cmd)
	if err != nil {
		return fmt.Errorf("failed to select simulation: %w", err)
	}

	sim, err := simulation.DefaultRegistry.Get(simName)
	if err != nil {
		return fmt.Errorf("failed to get simulation: %w", err)
	}

	simConfig, err := utils.FindSimulation(simName)
	if err != nil {
		return err
	}

	params, err := resolveParameters(cmd, simConfig)
	if err != nil {
		return fmt.Errorf("failed to get parameters: %w", err)
	}

	if err := sim.Configure(params); err != nil {
		return fmt.Errorf("failed to configure simulation: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		logger.Warn("\nReceived interrupt signal, stopping simulation...")
		if err := sim.Stop(); err != nil {
			logger.Errorf("Failed to stop simulation: %v", err)
			return
		}
		cancel()
	}()

	logger.LogSection(fmt.Sprintf("Starting %s", sim.Name()))
	if err := sim.Run(ctx); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	logger.Success("Simulation completed successfully")
	return nil
}

// resolveParameters merges, lowest priority first: prompted or file
// parameters, the scenario preset, then flag/env/config overrides
func resolveParameters(cmd *cobra.Command, simConfig *simulation.SimulationConfig) (map[string]interface{}, error) {
	var params map[string]interface{}

	paramsFile, _ := cmd.Flags().GetString("params")
	if paramsFile != "" {
		loaded, err := loadParamsFile(paramsFile)
		if err != nil {
			return nil, err
		}
		params = loaded
	} else {
		prompted, err := utils.PromptForParameters(simConfig.Parameters)
		if err != nil {
			return nil, err
		}
		params = prompted
	}

	if name, _ := cmd.Flags().GetString("scenario"); name != "" {
		scenarios, err := config.LoadScenarios()
		if err != nil {
			return nil, fmt.Errorf("failed to load scenarios: %w", err)
		}
		preset, ok := scenarios.Find(name)
		if !ok {
			return nil, fmt.Errorf("scenario %s not found", name)
		}
		logger.Infof("Applying scenario %q", preset.Name)
		for k, v := range preset.Params() {
			params[k] = v
		}
	}

	for _, key := range runOverrides {
		if !viper.IsSet(key) {
			continue
		}
		switch v := viper.Get(key).(type) {
		case string:
			if v != "" {
				params[key] = v
			}
		default:
			params[key] = viper.GetInt(key)
		}
	}

	return params, nil
}

func loadParamsFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}

	params := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse parameters file: %w", err)
	}
	return params, nil
}

func selectSimulation(cmd *cobra.Command) (string, error) {
	// Check if simulation is specified via flag
	simName, _ := cmd.Flags().GetString("simulation")
	if simName != "" {
		return simName, nil
	}

	// Discover available simulations
	simInfos, err := utils.DiscoverSimulations()
	if err != nil {
		return "", err
	}

	if len(simInfos) == 0 {
		return "", fmt.Errorf("no simulations found")
	}

	if len(simInfos) == 1 || utils.SkipPrompts() {
		return simInfos[0].Config.Name, nil
	}

	// Build options for selection
	options := make([]string, len(simInfos))
	descriptions := make(map[string]string)

	for i, info := range simInfos {
		options[i] = info.Config.Name
		descriptions[info.Config.Name] = info.Config.Description
	}

	// Interactive selection
	var selected string
	prompt := &survey.Select{
		Message: "Select simulation:",
		Options: options,
		Description: func(value string, index int) string {
			return descriptions[value]
		},
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}

	return selected, nil
}
