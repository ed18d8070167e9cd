package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	simconfig "github.com/picogrid/swarm-foraging/cmd/foraging/config"
	"github.com/picogrid/swarm-foraging/cmd/foraging/core"
	"github.com/picogrid/swarm-foraging/pkg/fuzzy"
	"github.com/picogrid/swarm-foraging/pkg/logger"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the robot fuzzy controller",
	Long: `Plot every fuzzy domain of the robot controller and list its rule sets.

The controller is built from the simulation config (--sim-config, or the same
default locations and SWARM_* variables a run uses), so the perception range and
defuzzification methods match what runs.`,
	RunE:  showRules,
}

func init() {
	rulesCmd.Flags().StringP("domain", "d", "", "only show this domain")
	rulesCmd.Flags().Int("width", 64, "chart width in columns")
	rulesCmd.Flags().Int("height", 10, "chart height in rows")
	rulesCmd.Flags().Bool("no-charts", false, "list rule sets only")
	rulesCmd.Flags().String("sim-config", "", "simulation config file (default: cmd/foraging/config.yaml when present)")
}

// controllerConfig resolves the fuzzy controller settings a run with this
// simulation config would use
func controllerConfig(path string) (core.FLCConfig, error) {
	cfg, err := simconfig.LoadConfigOrDefault(path)
	if err != nil {
		return core.FLCConfig{}, err
	}
	envCfg, err := cfg.EnvironmentConfig()
	if err != nil {
		return core.FLCConfig{}, err
	}
	return envCfg.FLC, nil
}

func showRules(cmd *cobra.Command, _ []string) error {
	only, _ := cmd.Flags().GetString("domain")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	noCharts, _ := cmd.Flags().GetBool("no-charts")

	simConfigPath, _ := cmd.Flags().GetString("sim-config")

	flcCfg, err := controllerConfig(simConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load simulation config: %w", err)
	}
	logger.Debugf("controller: range %.0f, rotation %s, translation %s",
		flcCfg.PerceptionRange, flcCfg.RotationMethod, flcCfg.TranslationMethod)

	flc, err := core.NewRobotFLC(flcCfg)
	if err != nil {
		return fmt.Errorf("failed to build controller: %w", err)
	}

	if !noCharts {
		logger.LogSection("Domains")
		found := false
		for _, d := range flc.System().Domains() {
			if only != "" && d.Name() != only {
				continue
			}
			found = true
			if err := fuzzy.WriteDomainChart(os.Stdout, d, width, height); err != nil {
				return err
			}
			fmt.Println()
		}
		if only != "" && !found {
			return fmt.Errorf("domain %s not found", only)
		}
	}

	if only != "" {
		return nil
	}

	logger.LogSection("Rule Sets")
	for _, rs := range flc.RuleSets() {
		logger.LogList(fmt.Sprintf("%s (%d rules)", rs.Name(), rs.Len()), fuzzy.DescribeRuleSet(rs))
	}
	return nil
}
