// Package main provides the entry point for the RecruitFlow HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recruitflow",
	Short: "RecruitFlow recruitment backend",
	Long:  "RecruitFlow manages job requisitions, candidate applications, assessment scoring, asynchronous CV analysis, offers, and realtime recruiter chat via REST and websocket APIs.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
