package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "mcpgate",
	Short: "mcpgate — natural-language gateway to MCP tool backends",
	Long: "mcpgate routes tool invocations to remote and local tool backends,\n" +
		"with Portuguese natural-language intent parsing and automatic fallback.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
}
