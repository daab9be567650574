package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [pack]",
	Short: "Check a pack or tree file for consistency",
	Long:  `Compiles every section of the pack (or one tree file with -f) and reports malformed definitions, broken section references and reference cycles.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.ValidateOptions{RunOptions: runOptions(cmd)}
		opts.File, _ = cmd.Flags().GetString("file")
		if !cmd.Flags().Changed("pack") && len(args) > 0 {
			opts.PackPath = args[0]
		}

		if err := cli.Validate(opts); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		if opts.File != "" {
			fmt.Println("Tree is valid! ✅")
		} else {
			fmt.Println("Pack is valid! ✅")
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("file", "f", "", "Validate a single tree definition file")
}
