package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"atmospress/internal/config"
	"atmospress/internal/pipeline"
	"atmospress/internal/runid"
	"atmospress/internal/services"
	"atmospress/internal/services/truehdd"
)

// pipelineExtensions are the input types encode accepts, matched
// case-insensitively. A directory input is expanded to the files directly
// inside it that carry one of these extensions.
var pipelineExtensions = map[string]struct{}{
	".thd": {},
	".mlp": {},
	".wav": {},
	".adm": {},
}

type encodeOptions struct {
	input                string
	atmosMode            string
	bitrate51            int
	bitrate71            int
	bitrateDDP           int
	drc                  string
	dialogueIntelligence bool
	disableDBFS          bool
	preferredDownmix     string
	warpMode             string
	spatialClusters      int
	forceTrueHD          bool
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var opts encodeOptions

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Run the mastering pipeline on a file or directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyEncodingDefaults(cmd, cfg, &opts)
			mode, err := validateEncodeOptions(&opts)
			if err != nil {
				return err
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			inputs, err := expandInputs(opts.input)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			status := newConsoleStatus(out)
			orch, err := pipeline.New(cfg,
				pipeline.WithLogger(logger),
				pipeline.WithStatusSink(status),
				pipeline.WithProgressWriter(out),
				pipeline.WithToolVersion(version),
			)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			runCtx = services.WithCorrelationID(runCtx, uuid.NewString())

			for i, input := range inputs {
				if len(inputs) > 1 {
					status.Info(fmt.Sprintf("Processing %s (%d of %d)", filepath.Base(input), i+1, len(inputs)))
				}
				if err := runOne(runCtx, orch, status, &opts, mode, input); err != nil {
					return err
				}
			}
			if len(inputs) > 1 {
				status.OK(fmt.Sprintf("Completed %d runs.", len(inputs)))
			}
			return nil
		},
	}

	defaults := config.Default().Encoding
	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "Input file or directory (.thd, .mlp, .wav, .adm)")
	flags.StringVar(&opts.atmosMode, "atmos-mode", "both", "Atmos encode passes: 5.1, 7.1, or both")
	flags.IntVar(&opts.bitrate51, "bitrate-atmos-5-1", defaults.AtmosBitrate51, "Atmos 5.1 bitrate in kbps ("+joinIntChoices(config.AtmosBitrates51)+")")
	flags.IntVar(&opts.bitrate71, "bitrate-atmos-7-1", defaults.AtmosBitrate71, "Atmos 7.1 bitrate in kbps ("+joinIntChoices(config.AtmosBitrates71)+")")
	flags.IntVar(&opts.bitrateDDP, "bitrate-ddp", defaults.DDPBitrate, "DDP 5.1 bitrate in kbps ("+joinIntChoices(config.DDPBitrates)+")")
	flags.StringVar(&opts.drc, "drc", defaults.DRCProfile, "DRC profile ("+strings.Join(config.DRCProfiles, ", ")+")")
	flags.BoolVar(&opts.dialogueIntelligence, "dialogue-intelligence", defaults.DialogueIntelligence, "Enable Dialogue Intelligence")
	flags.BoolVar(&opts.disableDBFS, "disable-dbfs", false, "Skip the dialogue level lookup and force 0")
	flags.StringVar(&opts.preferredDownmix, "preferred-downmix-mode", defaults.PreferredDownmix, "Preferred downmix mode ("+strings.Join(config.DownmixModes, ", ")+")")
	flags.StringVar(&opts.warpMode, "warp-mode", defaults.WarpMode, "Decoder warp mode ("+strings.Join(config.WarpModes, ", ")+")")
	flags.IntVar(&opts.spatialClusters, "spatial-clusters", defaults.SpatialClusters, "Spatial clusters for TrueHD encodes ("+joinIntChoices(config.SpatialClusterCounts)+")")
	flags.BoolVar(&opts.forceTrueHD, "truehd", false, "Encode .wav input to TrueHD Atmos instead of DDP")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// applyEncodingDefaults overlays the configuration values on every encoder
// flag the user did not set explicitly. Registered flag defaults cover the
// help text; the configuration file may differ from them.
func applyEncodingDefaults(cmd *cobra.Command, cfg *config.Config, opts *encodeOptions) {
	flags := cmd.Flags()
	if !flags.Changed("bitrate-atmos-5-1") {
		opts.bitrate51 = cfg.Encoding.AtmosBitrate51
	}
	if !flags.Changed("bitrate-atmos-7-1") {
		opts.bitrate71 = cfg.Encoding.AtmosBitrate71
	}
	if !flags.Changed("bitrate-ddp") {
		opts.bitrateDDP = cfg.Encoding.DDPBitrate
	}
	if !flags.Changed("drc") {
		opts.drc = cfg.Encoding.DRCProfile
	}
	if !flags.Changed("dialogue-intelligence") {
		opts.dialogueIntelligence = cfg.Encoding.DialogueIntelligence
	}
	if !flags.Changed("preferred-downmix-mode") {
		opts.preferredDownmix = cfg.Encoding.PreferredDownmix
	}
	if !flags.Changed("warp-mode") {
		opts.warpMode = cfg.Encoding.WarpMode
	}
	if !flags.Changed("spatial-clusters") {
		opts.spatialClusters = cfg.Encoding.SpatialClusters
	}
}

func validateEncodeOptions(opts *encodeOptions) (pipeline.Mode, error) {
	mode, err := pipeline.ParseMode(opts.atmosMode)
	if err != nil {
		return "", err
	}
	if err := validateIntChoice("bitrate-atmos-5-1", opts.bitrate51, config.AtmosBitrates51); err != nil {
		return "", err
	}
	if err := validateIntChoice("bitrate-atmos-7-1", opts.bitrate71, config.AtmosBitrates71); err != nil {
		return "", err
	}
	if err := validateIntChoice("bitrate-ddp", opts.bitrateDDP, config.DDPBitrates); err != nil {
		return "", err
	}
	if err := validateStringChoice("drc", opts.drc, config.DRCProfiles); err != nil {
		return "", err
	}
	if err := validateStringChoice("preferred-downmix-mode", opts.preferredDownmix, config.DownmixModes); err != nil {
		return "", err
	}
	if err := validateStringChoice("warp-mode", opts.warpMode, config.WarpModes); err != nil {
		return "", err
	}
	if err := validateIntChoice("spatial-clusters", opts.spatialClusters, config.SpatialClusterCounts); err != nil {
		return "", err
	}
	return mode, nil
}

func validateIntChoice(flag string, value int, choices []int) error {
	for _, choice := range choices {
		if choice == value {
			return nil
		}
	}
	return fmt.Errorf("--%s must be one of %s", flag, joinIntChoices(choices))
}

func validateStringChoice(flag, value string, choices []string) error {
	for _, choice := range choices {
		if choice == value {
			return nil
		}
	}
	return fmt.Errorf("--%s must be one of %s", flag, strings.Join(choices, ", "))
}

func joinIntChoices(choices []int) string {
	parts := make([]string, len(choices))
	for i, choice := range choices {
		parts[i] = strconv.Itoa(choice)
	}
	return strings.Join(parts, ", ")
}

// expandInputs resolves the input argument to the files to process. A
// directory is expanded to the supported files directly inside it, sorted by
// name so batch order is stable.
func expandInputs(input string) ([]string, error) {
	path := strings.TrimSpace(input)
	if path == "" {
		return nil, fmt.Errorf("--input is required")
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return nil, fmt.Errorf("inspect input: %w", err)
	}
	if !info.IsDir() {
		return []string{expanded}, nil
	}

	entries, err := os.ReadDir(expanded)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := pipelineExtensions[ext]; !ok {
			continue
		}
		files = append(files, filepath.Join(expanded, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported input files in %s", expanded)
	}
	sort.Strings(files)
	return files, nil
}

func runOne(ctx context.Context, orch *pipeline.Orchestrator, status *consoleStatus, opts *encodeOptions, mode pipeline.Mode, inputPath string) error {
	kind, err := pipeline.DetectKind(inputPath, opts.forceTrueHD)
	if err != nil {
		return err
	}

	id := runid.Derive(inputPath)

	req := pipeline.Request{
		InputPath:             inputPath,
		Kind:                  kind,
		Mode:                  mode,
		AtmosBitrate51:        opts.bitrate51,
		AtmosBitrate71:        opts.bitrate71,
		DDPBitrate:            opts.bitrateDDP,
		DRCProfile:            opts.drc,
		DialogueIntelligence:  opts.dialogueIntelligence,
		DisableDialnormLookup: opts.disableDBFS,
		PreferredDownmix:      opts.preferredDownmix,
		WarpMode:              opts.warpMode,
		SpatialClusters:       opts.spatialClusters,
	}

	// Atmos settings include stream facts, so that table waits for the
	// analysis to succeed. The other kinds print before the run starts.
	if kind == pipeline.KindAtmosDDP {
		req.OnAnalyzed = func(stream truehdd.StreamInfo) {
			printSettings(status, opts, mode, kind, id.ShortHash, &stream)
		}
	} else {
		printSettings(status, opts, mode, kind, id.ShortHash, nil)
	}

	_, err = orch.Execute(ctx, req)
	return err
}

func printSettings(status *consoleStatus, opts *encodeOptions, mode pipeline.Mode, kind pipeline.Kind, runID string, stream *truehdd.StreamInfo) {
	rows := [][]string{{"Run ID", runID}}
	switch kind {
	case pipeline.KindAtmosDDP:
		status.Info("Selected Atmos settings:")
		if mode.Includes(pipeline.Mode51) {
			rows = append(rows, []string{"Atmos 5.1 bitrate", fmt.Sprintf("%d kbps", opts.bitrate51)})
		}
		if mode.Includes(pipeline.Mode71) {
			rows = append(rows, []string{"Atmos 7.1 bitrate", fmt.Sprintf("%d kbps", opts.bitrate71)})
		}
		if stream != nil {
			rows = append(rows, []string{"Dialogue Level", fmt.Sprintf("%d dB", stream.DialogueLevel)})
		}
		rows = append(rows,
			[]string{"Dialogue Intelligence", strconv.FormatBool(opts.dialogueIntelligence)},
			[]string{"DRC profile", opts.drc},
			[]string{"Preferred Downmix Mode", opts.preferredDownmix},
		)
		if stream != nil && stream.SelectedPresentation != nil {
			rows = append(rows, []string{"Last Presentation", strconv.Itoa(*stream.SelectedPresentation)})
		}
		rows = append(rows, []string{"Warp mode", opts.warpMode})
	case pipeline.KindPCMDDP:
		status.Info("Selected DDP settings:")
		rows = append(rows,
			[]string{"DDP bitrate", fmt.Sprintf("%d kbps", opts.bitrateDDP)},
			[]string{"Dialogue Intelligence", strconv.FormatBool(opts.dialogueIntelligence)},
			[]string{"DRC profile", opts.drc},
			[]string{"Preferred Downmix Mode", opts.preferredDownmix},
		)
	case pipeline.KindADMTrueHD:
		status.Info("Selected TrueHD settings:")
		rows = append(rows,
			[]string{"Spatial clusters", strconv.Itoa(opts.spatialClusters)},
			[]string{"Dialogue Intelligence", strconv.FormatBool(opts.dialogueIntelligence)},
		)
	}
	fmt.Fprintln(status.out, renderTable([]string{"Setting", "Value"}, rows))
}
