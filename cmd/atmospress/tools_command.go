package main

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"atmospress/internal/config"
	"atmospress/internal/deps"
	"atmospress/internal/preflight"
	"atmospress/internal/services/dee"
)

func newToolsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Check the external tools and directories the pipeline needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cfg)
			toolRows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				toolRows = append(toolRows, []string{status.Name, toolStateLabel(status), toolDetail(status)})
			}
			fmt.Fprintln(out, renderSectionHeader("External tools", colorize))
			fmt.Fprintln(out, renderTable([]string{"Tool", "Status", "Detail"}, toolRows))

			checks := preflight.RunAll(cfg)
			checkRows := make([][]string, 0, len(checks))
			for _, check := range checks {
				state := "ok"
				if !check.Passed {
					state = "failed"
				}
				checkRows = append(checkRows, []string{check.Name, state, check.Detail})
			}
			fmt.Fprintln(out, renderSectionHeader("Directories", colorize))
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows))

			probeEncoderVersion(cmd, cfg)

			var problems []string
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				problems = append(problems, fmt.Sprintf("%d required tools missing", len(missing)))
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				problems = append(problems, fmt.Sprintf("%d directory checks failed", len(failed)))
			}
			if len(problems) > 0 {
				return errors.New(strings.Join(problems, "; "))
			}
			return nil
		},
	}
}

func toolStateLabel(status deps.Status) string {
	if status.Available {
		return "found"
	}
	if status.Optional {
		return "missing (optional)"
	}
	return "missing"
}

func toolDetail(status deps.Status) string {
	if status.Available {
		return status.Description
	}
	return status.Detail
}

// probeEncoderVersion reports the encoding engine's self-reported version
// when the binary is present. A failed probe is informational here; encode
// runs repeat it with the same non-fatal handling.
func probeEncoderVersion(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	binary := deps.ResolvePath(cfg.Paths.BinariesDir, deps.ToolDEE)
	if _, err := exec.LookPath(binary); err != nil {
		return
	}
	client, err := dee.New(binary)
	if err != nil {
		return
	}
	version, err := client.Version(cmd.Context())
	if err != nil || strings.TrimSpace(version) == "" {
		fmt.Fprintln(out, renderStatusTag(statusWarn, "Could not determine DEE version.", colorize))
		return
	}
	fmt.Fprintln(out, renderStatusTag(statusInfo, "DEE Encoder: "+version, colorize))
}
