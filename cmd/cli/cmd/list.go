package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/picogrid/swarm-foraging/pkg/simulation"
	"github.com/picogrid/swarm-foraging/pkg/utils"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available simulations",
	Long: `List the simulations described by simulation.yaml files under cmd/.
A simulation can only be run when its package is linked into this binary.`,
	RunE: listSimulations,
}

func init() {
	listCmd.Flags().Bool("params", false, "also list each simulation's parameters")
}

func listSimulations(cmd *cobra.Command, _ []string) error {
	simInfos, err := utils.DiscoverSimulations()
	if err != nil {
		return fmt.Errorf("failed to discover simulations: %w", err)
	}

	if len(simInfos) == 0 {
		fmt.Println("No simulations found")
		return nil
	}

	showParams, _ := cmd.Flags().GetBool("params")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tVERSION\tCATEGORY\tRUNNABLE\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t-------\t--------\t--------\t-----------")

	for _, info := range simInfos {
		runnable := "no"
		if simulation.DefaultRegistry.Has(info.Config.Name) {
			runnable = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			info.Config.Name,
			info.Config.Version,
			info.Config.Category,
			runnable,
			info.Config.Description,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if showParams {
		for _, info := range simInfos {
			fmt.Printf("\n%s parameters:\n", info.Config.Name)
			if err := writeParameters(os.Stdout, info.Config.Parameters); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeParameters(out io.Writer, params []simulation.Parameter) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, p := range params {
		def := "-"
		if p.Default != nil {
			def = fmt.Sprint(p.Default)
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", p.Name, p.Type, def, p.Description)
	}
	return w.Flush()
}
