package main

import (
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "coderadar-cli",
	Short: "coderadar-cli is a CLI client for the coderadar indexing service",
	Long:  `A command-line interface for driving a running coderadar server's index/search/status endpoints.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("CODERADAR_SERVER", "http://127.0.0.1:8080"), "base URL of the coderadar server")
	rootCmd.AddCommand(reposCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
