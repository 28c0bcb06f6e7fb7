package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pharmassist",
	Short: "Conversational pharmacy assistant with tool calling",
	Long: `pharmassist answers medication questions over a streaming chat API.
The model resolves names, checks stock, locates pharmacies, and reads
prescriptions through validated tool calls.

Examples:
  pharmassist serve                       # run the HTTP SSE server
  pharmassist tools list                  # show registered tool schemas
  pharmassist tools run check_stock '{"med_id":"med_001"}'`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
