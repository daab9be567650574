package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP rendering server",
	Long: `Starts the Espalier engine in server mode, exposing rendering over a JSON
API. Session transcripts accumulate across exchanges; they persist to local
files unless --redis points at a shared store.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.ServeOptions{RunOptions: runOptions(cmd)}
		opts.Port, _ = cmd.Flags().GetString("port")

		if err := cli.Serve(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for a shared transcript store (default: local files)")
}
