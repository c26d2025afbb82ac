// Package main is the entry point for the faultboard CLI.
//
// FaultBoard can be run either as a library (SDK) wrapping an http.Handler,
// or as a standalone binary fronting an existing web application. This CLI
// provides the standalone binary approach.
//
// Usage:
//
//	faultboard serve -c config.yaml    # Proxy the application with the overlay
//	faultboard validate -c config.yaml # Validate configuration
//	faultboard parse [file]            # Print the frames of a stack trace
//	faultboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "faultboard",
	Short: "A development-time failure overlay for web applications",
	Long: `FaultBoard captures unhandled failures of a web application and shows
the latest one as a badge, or as a full overlay with the parsed call stack.

Quick start:
  1. Start your application (for example on port 3000)
  2. Create a config file (faultboard.yaml)
  3. Run: faultboard serve -c faultboard.yaml
  4. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  upstream:
    url: http://localhost:3000`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this faultboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "faultboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
