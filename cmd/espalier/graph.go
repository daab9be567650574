package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [section]",
	Short: "Export the prompt tree visualization",
	Long: `Compiles a tree and outputs a Mermaid diagram (graph TD) of its structure.
With --budget the tree is rendered first and the diagram marks which units
survived the budget and which were pruned.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.GraphOptions{RunOptions: runOptions(cmd)}
		opts.File, _ = cmd.Flags().GetString("file")
		opts.Section, _ = cmd.Flags().GetString("section")
		if opts.Section == "" && len(args) > 0 {
			opts.Section = args[0]
		}
		opts.Props, _ = cmd.Flags().GetString("props")
		opts.Budget, _ = cmd.Flags().GetInt("budget")

		if err := cli.Graph(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringP("file", "f", "", "Tree definition file (YAML or JSON)")
	graphCmd.Flags().String("section", "", "Pack section to graph")
	graphCmd.Flags().Int("budget", -1, "Render with this budget and overlay the outcome")
	graphCmd.Flags().String("props", "", "Props as a JSON object")
}
