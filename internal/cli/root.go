package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds a tool's root command with the persistent --config
// and --verbose flags and the shared history, doctor, and config
// subcommands. The caller sets Args, RunE, and tool-specific flags.
func NewRootCommand(ctx *CommandContext, use, short string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx.logWriter = cmd.ErrOrStderr()
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.EnsureConfig()
			return err
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
