package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is replaced at release time via -ldflags "-X main.version=...".
// It also stamps the creation tool marker in patched Atmos metadata.
var version = "dev"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the atmospress version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "atmospress %s\n", version)
			return nil
		},
	}
}
