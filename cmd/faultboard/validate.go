package main

import (
	"fmt"

	"github.com/jpalmerr/faultboard/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a FaultBoard configuration file without starting the server.

This command parses the YAML or TOML, expands environment variables, and
validates all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  faultboard validate -c faultboard.yaml
  faultboard validate --config /etc/faultboard/faultboard.toml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:          %d\n", cfg.Port)
	fmt.Fprintf(out, "  Upstream:      %s\n", cfg.Upstream.URL)
	fmt.Fprintf(out, "  Ready check:   %s (timeout %s)\n", cfg.Upstream.ReadyURL(), cfg.Upstream.ReadyTimeout.Duration())
	fmt.Fprintf(out, "  Reports:       %g/s burst %d\n", cfg.Reports.Rate, cfg.Reports.Burst)
	fmt.Fprintf(out, "  Log level:     %s\n", cfg.LogLevel)

	return nil
}
