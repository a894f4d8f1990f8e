package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediakit/internal/preflight"
)

var checkColors = map[string]string{
	"OK":    "\x1b[32m",
	"WARN":  "\x1b[33m",
	"ERROR": "\x1b[31m",
}

const colorReset = "\x1b[0m"

func newDoctorCommand(ctx *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the engine and directories are ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.EnsureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			color := IsTerminal(out)
			results := preflight.RunAll(cmd.Context(), cfg, ctx.Tool)
			fmt.Fprintf(out, "%s readiness\n", ctx.Tool)
			for _, result := range results {
				fmt.Fprintln(out, checkLine(result, color))
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}

// checkLine renders one result as "  Name:  [STATE] detail" with the name
// column padded to 20 characters.
func checkLine(result preflight.Result, color bool) string {
	state := checkState(result)
	line := fmt.Sprintf("  %-20s [%s]", result.Name+":", state)
	if result.Detail != "" {
		line += " " + result.Detail
	}
	if color {
		line = checkColors[state] + line + colorReset
	}
	return line
}

func checkState(result preflight.Result) string {
	switch {
	case !result.Passed:
		return "ERROR"
	case result.Warning:
		return "WARN"
	default:
		return "OK"
	}
}
