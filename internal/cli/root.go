package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var flagDebug bool

var rootCmd = &cobra.Command{
	Use:   "quorum",
	Short: "Multi-agent AI code review CLI",
	Long: "Quorum reviews code with a panel of specialized AI agents (security, performance,\n" +
		"style, architecture, readability, testability) and consolidates their findings\n" +
		"into one prioritized report with line-anchored review comments.",
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(backendsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print quorum version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "quorum version %s\n", version)
	},
}
