package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/faultboard"
)

// parseCmd prints the frames of a captured stack trace.
var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Print the frames of a stack trace",
	Long: `Parse a stack trace the same way the overlay does and print one frame
per line. The trace is read from the given file, or from stdin when no file
(or "-") is given.

The first line is the error message. Lines that are not call sites are
skipped.

Example:
  faultboard parse trace.txt
  pbpaste | faultboard parse`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().Bool("no-color", false, "disable colored output")
}

func runParse(cmd *cobra.Command, args []string) error {
	noColor, _ := cmd.Flags().GetBool("no-color")

	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read stack trace: %w", err)
	}

	frames := faultboard.ParseStack(string(data))
	out := cmd.OutOrStdout()
	if len(frames) == 0 {
		fmt.Fprintln(out, "no frames found")
		return nil
	}

	fn := color.New(color.FgGreen, color.Bold)
	loc := color.New(color.FgCyan)
	if noColor {
		fn.DisableColor()
		loc.DisableColor()
	}

	for i, f := range frames {
		fmt.Fprintf(out, "%3d  %s\n     %s\n", i, fn.Sprint(f.FunctionName), loc.Sprintf("%s:%s:%s", f.FullPath, f.Line, f.Column))
	}
	return nil
}
