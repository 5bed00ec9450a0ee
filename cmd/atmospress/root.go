package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var logFormatFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag, &logFormatFlag)

	rootCmd := &cobra.Command{
		Use:   "atmospress",
		Short: "Dolby Atmos mastering pipeline",
		Long: "atmospress drives TrueHD/Atmos and PCM masters through decode,\n" +
			"metadata normalization, and Dolby encoding to DDP or TrueHD deliverables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Path to the configuration file")
	flags.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, or error")
	flags.StringVar(&logFormatFlag, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(
		newEncodeCommand(ctx),
		newToolsCommand(ctx),
		newConfigCommand(ctx),
		newVersionCommand(),
	)

	return rootCmd
}
