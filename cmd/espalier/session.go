package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent transcript sessions",
	Long:  `List, inspect, and remove conversation transcripts. Sessions live in .espalier/sessions unless --redis points at a shared store.`,
}

func getStore(cmd *cobra.Command) (ports.TranscriptStore, func() error) {
	redisURL, _ := cmd.Flags().GetString("redis")
	return cli.OpenStore(redisURL)
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := getStore(cmd)
		defer closeStore()

		sessions, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing sessions: %v\n", err)
			os.Exit(1)
		}

		if len(sessions) == 0 {
			fmt.Println("No active sessions found.")
			return
		}

		fmt.Println("Active Sessions:")
		for _, s := range sessions {
			fmt.Println("- " + s)
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the transcript of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := getStore(cmd)
		defer closeStore()

		msgs, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading session: %v\n", err)
			os.Exit(1)
		}

		out, err := json.MarshalIndent(msgs, "", "  ")
		if err != nil {
			fmt.Printf("Error encoding transcript: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Remove a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := getStore(cmd)
		defer closeStore()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			fmt.Printf("Error removing session: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Session '%s' removed.\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)

	sessionCmd.PersistentFlags().String("redis", "", "Redis address for a shared transcript store (default: local files)")
}
