package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier renders declarative prompt trees within token budgets",
	Long: `Espalier turns hierarchical prompt definitions into flat chat transcripts.
Content is measured, allocated and pruned by priority, so the rendered
prompt always fits the token budget of the target model.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("pack", ".", "Directory containing the prompt pack")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// runOptions collects the shared flags into the options every command
// starts from. Commands without a --redis flag get an empty URL.
func runOptions(cmd *cobra.Command) cli.RunOptions {
	pack, _ := cmd.Flags().GetString("pack")
	debug, _ := cmd.Flags().GetBool("debug")
	redisURL, _ := cmd.Flags().GetString("redis")
	return cli.RunOptions{PackPath: pack, Debug: debug, RedisURL: redisURL}
}
