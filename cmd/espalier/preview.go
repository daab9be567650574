package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview [section]",
	Short: "Pretty-print a rendered prompt in the terminal",
	Long: `Renders a tree and prints the transcript as styled markdown. With --watch
the pack is re-rendered whenever a section changes on disk, which makes a
tight loop for prompt authoring.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.PreviewOptions{RunOptions: runOptions(cmd)}
		opts.File, _ = cmd.Flags().GetString("file")
		opts.Section, _ = cmd.Flags().GetString("section")
		if opts.Section == "" && len(args) > 0 {
			opts.Section = args[0]
		}
		opts.Props, _ = cmd.Flags().GetString("props")
		opts.Budget, _ = cmd.Flags().GetInt("budget")
		opts.Watch, _ = cmd.Flags().GetBool("watch")

		if err := cli.Preview(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringP("file", "f", "", "Tree definition file (YAML or JSON)")
	previewCmd.Flags().String("section", "", "Pack section to render")
	previewCmd.Flags().Int("budget", 0, "Token budget for the whole prompt")
	previewCmd.Flags().String("props", "", "Props as a JSON object")
	previewCmd.Flags().BoolP("watch", "w", false, "Re-render on pack changes")
	previewCmd.MarkFlagRequired("budget")
}
