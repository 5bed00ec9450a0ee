package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"atmospress/internal/artifacts"
	"atmospress/internal/atmosmeta"
	"atmospress/internal/deejob"
	"atmospress/internal/logging"
	"atmospress/internal/services"
	"atmospress/internal/services/truehdd"
)

// executeAtmos runs the TrueHD/Atmos source through decode, metadata patch,
// and the scheduled E-AC-3 passes.
func (o *Orchestrator) executeAtmos(ctx context.Context, r *run) error {
	if err := o.verifyTools(ctx, r); err != nil {
		return err
	}

	if err := o.stage(ctx, r, "analyze", StateStreamAnalyzed, func(ctx context.Context, logger *slog.Logger) error {
		r.status.Info("Reading TrueHD stream info...")
		info, err := o.decoder.Inspect(ctx, r.req.InputPath, r.req.DisableDialnormLookup)
		if err != nil {
			return err
		}
		if !info.AtmosPresent {
			return services.Wrap(services.ErrValidation, "analyze", "verify atmos", "input stream does not carry Dolby Atmos", nil)
		}
		r.stream = info
		r.hasStream = true

		attrs := []logging.Attr{
			logging.Bool("atmos", info.AtmosPresent),
			logging.Int("dialogue_level", info.DialogueLevel),
		}
		if info.SelectedPresentation != nil {
			attrs = append(attrs, logging.Int("presentation", *info.SelectedPresentation))
		}
		logger.Info("stream analyzed", logging.Args(attrs...)...)

		if r.req.OnAnalyzed != nil {
			r.req.OnAnalyzed(info)
		}
		return nil
	}); err != nil {
		return err
	}

	if err := o.stage(ctx, r, "decode", StateDecoded, func(ctx context.Context, logger *slog.Logger) error {
		if err := os.MkdirAll(r.workDir, 0o755); err != nil {
			return services.Wrap(services.ErrConfiguration, "decode", "create work directory", err.Error(), err)
		}
		r.status.Info("Starting TrueHD Atmos decode...")
		return o.decoder.Decode(ctx, truehdd.DecodeRequest{
			InputPath:     r.req.InputPath,
			OutputDirName: r.id.ShortHash,
			WorkingDir:    r.outputDir,
			WarpMode:      r.req.WarpMode,
			Presentation:  r.stream.SelectedPresentation,
		})
	}); err != nil {
		return err
	}

	if err := o.stage(ctx, r, "normalize", StateArtifactsNormalized, func(ctx context.Context, logger *slog.Logger) error {
		located, err := artifacts.LocateTriple(r.workDir, r.outputDir)
		if err != nil {
			return err
		}
		normalized, err := artifacts.NormalizeTriple(located, r.outputDir, r.id.ShortHash)
		if err != nil {
			return err
		}
		r.triple = normalized
		logger.Info("artifacts normalized", logging.String("atmos", normalized.Atmos))
		return nil
	}); err != nil {
		return err
	}

	if err := o.stage(ctx, r, "patch", StateMetadataPatched, func(ctx context.Context, logger *slog.Logger) error {
		changed, err := atmosmeta.Patch(r.triple.Atmos, r.req.WarpMode, o.toolVersion)
		if err != nil {
			return err
		}
		if changed {
			r.status.OK("The Atmos file was successfully transformed.")
		} else {
			r.status.Info("No changes were made to the Atmos file.")
		}
		logger.Info("metadata patch evaluated", logging.Bool("changed", changed))
		return nil
	}); err != nil {
		return err
	}

	if r.req.Mode.Includes(Mode51) {
		if err := o.encodeAtmosPass(ctx, r, Mode51); err != nil {
			return err
		}
	}
	if r.req.Mode.Includes(Mode71) {
		if err := o.encodeAtmosPass(ctx, r, Mode71); err != nil {
			return err
		}
	}

	return o.finishCleanup(ctx, r)
}

// encodeAtmosPass produces one E-AC-3 deliverable from the decoded triple.
// The 7.1 pass runs the channel-order fix between encode and final rename.
func (o *Orchestrator) encodeAtmosPass(ctx context.Context, r *run, pass Mode) error {
	label := "Atmos 5.1"
	stageName := "encode_atmos_5_1"
	suffix := "_atmos_5_1"
	bitrate := r.req.AtmosBitrate51
	next := StateEncoded51
	if pass == Mode71 {
		label = "Atmos 7.1"
		stageName = "encode_atmos_7_1"
		suffix = "_atmos_7_1"
		bitrate = r.req.AtmosBitrate71
		next = StateEncoded71
	}

	return o.stage(ctx, r, stageName, next, func(ctx context.Context, logger *slog.Logger) error {
		r.status.Info(fmt.Sprintf("Creating %s job config...", label))
		jobPath, err := deejob.WriteAtmosDDP(deejob.AtmosRequest{
			OutputDir:            r.outputDir,
			InputFileName:        filepath.Base(r.triple.Atmos),
			OutputFileName:       r.id.ShortHash + suffix + ".eac3",
			XMLFileName:          r.id.ShortHash + "_encode" + suffix + ".xml",
			DataRate:             bitrate,
			DRCProfile:           r.req.DRCProfile,
			DialogueIntelligence: r.req.DialogueIntelligence,
			DialogueLevel:        r.stream.DialogueLevel,
			PreferredDownmix:     r.req.PreferredDownmix,
			Use71:                pass == Mode71,
		})
		if err != nil {
			return services.Wrap(services.ErrValidation, stageName, "write job config", err.Error(), err)
		}
		r.jobConfigs = append(r.jobConfigs, jobPath)

		r.status.Info(fmt.Sprintf("Starting %s encoding (%d kbps)...", label, bitrate))
		forced := r.stream.DialogueLevel
		if _, err := o.runEncode(ctx, logger, label, jobPath, &forced); err != nil {
			return err
		}

		encoded := r.id.Intermediate(r.outputDir, suffix+".eac3")
		if pass == Mode71 {
			fixed := r.id.Intermediate(r.outputDir, "_atmos_7_1_fix.eac3")
			r.status.Info("Running eac3_7.1_atmos_fix...")
			if err := o.fixer.Fix(ctx, encoded, fixed); err != nil {
				return err
			}
			if err := artifacts.RemoveQuiet(encoded); err != nil {
				logger.Warn("unfixed encode removal failed", logging.Error(err))
			}
			encoded = fixed
		}

		deliverable := r.id.Deliverable(r.outputDir, suffix+".eac3")
		if err := artifacts.Place(encoded, deliverable); err != nil {
			return err
		}
		r.deliverables = append(r.deliverables, Deliverable{Label: label, Path: deliverable})
		r.status.OK("Saved: " + filepath.Base(deliverable))

		if cleanupTripleAfter(pass, r.req.Mode) {
			r.status.Info("Removing Atmos intermediate files...")
			artifacts.RemoveTriple(logger, r.triple)
			r.status.OK("Atmos intermediate files removed.")
		}
		return nil
	})
}
