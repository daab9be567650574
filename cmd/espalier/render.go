package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render [section]",
	Short: "Render a prompt tree into budget-fitted messages",
	Long: `Compiles a tree from a definition file (-f) or a pack section, fits it to
the token budget and writes the result to stdout.

The vendor formats (openai, anthropic) emit the request body the respective
client library would send, ready to pipe into curl.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.RenderOptions{RunOptions: runOptions(cmd)}
		opts.File, _ = cmd.Flags().GetString("file")
		opts.Section, _ = cmd.Flags().GetString("section")
		if opts.Section == "" && len(args) > 0 {
			opts.Section = args[0]
		}
		opts.Props, _ = cmd.Flags().GetString("props")
		opts.Budget, _ = cmd.Flags().GetInt("budget")
		opts.Model, _ = cmd.Flags().GetString("model")
		opts.MaxTokens, _ = cmd.Flags().GetInt("max-tokens")
		opts.Format, _ = cmd.Flags().GetString("format")
		opts.SessionID, _ = cmd.Flags().GetString("session")

		if err := cli.Render(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("file", "f", "", "Tree definition file (YAML or JSON)")
	renderCmd.Flags().String("section", "", "Pack section to render")
	renderCmd.Flags().Int("budget", 0, "Token budget for the whole prompt")
	renderCmd.Flags().String("props", "", "Props as a JSON object")
	renderCmd.Flags().String("model", "", "Model name recorded on the endpoint")
	renderCmd.Flags().Int("max-tokens", 0, "Completion allowance for vendor formats")
	renderCmd.Flags().String("format", "json", "Output format: text, json, openai or anthropic")
	renderCmd.Flags().String("session", "", "Session ID threaded to history components")
	renderCmd.Flags().String("redis", "", "Redis address for a shared transcript store (default: local files)")
	renderCmd.MarkFlagRequired("budget")
}
