package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"atmospress/internal/artifacts"
	"atmospress/internal/deejob"
	"atmospress/internal/deps"
	"atmospress/internal/logging"
	"atmospress/internal/services"
	"atmospress/internal/services/ffmpeg"
)

// probeInput reads the first audio stream of the source and returns its
// sample rate.
func (o *Orchestrator) probeInput(ctx context.Context, r *run, logger *slog.Logger) (int, error) {
	binary := deps.ResolvePath(o.cfg.Paths.BinariesDir, deps.ToolFFprobe)
	result, err := o.probe(ctx, binary, r.req.InputPath)
	if err != nil {
		return 0, err
	}
	stream, ok := result.FirstAudioStream()
	if !ok {
		return 0, services.Wrap(services.ErrValidation, "probe", "inspect input", "no audio stream found", nil)
	}
	rate := stream.SampleRateHz()
	if rate <= 0 {
		return 0, services.Wrap(services.ErrValidation, "probe", "inspect input", "sample rate not reported", nil)
	}
	if n := result.AudioStreamCount(); n > 1 {
		logger.Warn("source has multiple audio streams, using first",
			logging.Int("streams", n),
			logging.Int("stream_index", stream.Index),
		)
	}
	logger.Info("input probed",
		logging.Int("sample_rate", rate),
		logging.Int("channels", stream.Channels),
		logging.Int("bit_depth", stream.BitsPerSample),
		logging.String("layout", stream.ChannelLayout),
		logging.String("codec", stream.CodecName),
		logging.Float64("duration_sec", result.DurationSeconds()),
	)
	return rate, nil
}

// executePCM encodes a plain PCM wav to an E-AC-3 5.1 deliverable,
// resampling first when the source is not at the encoder's required rate.
func (o *Orchestrator) executePCM(ctx context.Context, r *run) error {
	if err := o.verifyTools(ctx, r); err != nil {
		return err
	}

	var sampleRate int
	if err := o.stage(ctx, r, "probe", StateProbed, func(ctx context.Context, logger *slog.Logger) error {
		rate, err := o.probeInput(ctx, r, logger)
		if err != nil {
			return err
		}
		sampleRate = rate
		return nil
	}); err != nil {
		return err
	}

	encodeDir := filepath.Dir(r.req.InputPath)
	encodeName := filepath.Base(r.req.InputPath)
	if sampleRate != ffmpeg.TargetSampleRate {
		if err := o.stage(ctx, r, "resample", StateResampled, func(ctx context.Context, logger *slog.Logger) error {
			if err := os.MkdirAll(r.workDir, 0o755); err != nil {
				return services.Wrap(services.ErrConfiguration, "resample", "create work directory", err.Error(), err)
			}
			resampled := filepath.Join(r.workDir, r.id.ShortHash+"_48k.wav")
			r.status.Info(fmt.Sprintf("Resampling %d Hz source to %d Hz...", sampleRate, ffmpeg.TargetSampleRate))
			if err := o.resampler.Resample(ctx, ffmpeg.ResampleRequest{
				InputPath:  r.req.InputPath,
				OutputPath: resampled,
			}); err != nil {
				return err
			}
			r.resampled = resampled
			encodeDir = r.workDir
			encodeName = filepath.Base(resampled)
			return nil
		}); err != nil {
			return err
		}
	}

	if err := o.stage(ctx, r, "encode_ddp", StateEncoded, func(ctx context.Context, logger *slog.Logger) error {
		r.status.Info("Creating DDP 5.1 job config...")
		jobPath, err := deejob.WritePCMDDP(deejob.PCMRequest{
			OutputDir:            r.outputDir,
			InputDir:             encodeDir,
			InputFileName:        encodeName,
			OutputFileName:       r.id.ShortHash + "_ddp_5_1.eac3",
			XMLFileName:          r.id.ShortHash + "_encode_ddp_5_1.xml",
			DataRate:             r.req.DDPBitrate,
			DRCProfile:           r.req.DRCProfile,
			DialogueIntelligence: r.req.DialogueIntelligence,
			DialogueLevel:        0,
			PreferredDownmix:     r.req.PreferredDownmix,
		})
		if err != nil {
			return services.Wrap(services.ErrValidation, "encode_ddp", "write job config", err.Error(), err)
		}
		r.jobConfigs = append(r.jobConfigs, jobPath)

		r.status.Info(fmt.Sprintf("Starting DDP 5.1 encoding (%d kbps)...", r.req.DDPBitrate))
		measured, err := o.runEncode(ctx, logger, "DDP 5.1", jobPath, nil)
		if err != nil {
			return err
		}
		r.measured = measured

		deliverable := r.id.Deliverable(r.outputDir, "_ddp_5_1.eac3")
		if err := artifacts.Place(r.id.Intermediate(r.outputDir, "_ddp_5_1.eac3"), deliverable); err != nil {
			return err
		}
		r.deliverables = append(r.deliverables, Deliverable{Label: "DDP 5.1", Path: deliverable})
		r.status.OK("Saved: " + filepath.Base(deliverable))
		return nil
	}); err != nil {
		return err
	}

	return o.finishCleanup(ctx, r)
}

// executeADM encodes an ADM BWF master to MLP/TrueHD. The source must
// already be 48 kHz: resampling would rewrite the wav data chunk and drop
// the ADM metadata the encode depends on.
func (o *Orchestrator) executeADM(ctx context.Context, r *run) error {
	if err := o.verifyTools(ctx, r); err != nil {
		return err
	}

	if err := o.stage(ctx, r, "probe", StateProbed, func(ctx context.Context, logger *slog.Logger) error {
		rate, err := o.probeInput(ctx, r, logger)
		if err != nil {
			return err
		}
		if rate != ffmpeg.TargetSampleRate {
			detail := fmt.Sprintf("ADM master is %d Hz; %d Hz required", rate, ffmpeg.TargetSampleRate)
			return services.Wrap(services.ErrValidation, "probe", "verify sample rate", detail, nil)
		}
		return nil
	}); err != nil {
		return err
	}

	if err := o.stage(ctx, r, "encode_truehd", StateEncoded, func(ctx context.Context, logger *slog.Logger) error {
		r.status.Info("Creating TrueHD Atmos job config...")
		jobPath, err := deejob.WriteADMTrueHD(deejob.ADMRequest{
			OutputDir:            r.outputDir,
			InputDir:             filepath.Dir(r.req.InputPath),
			InputFileName:        filepath.Base(r.req.InputPath),
			OutputFileName:       r.id.ShortHash + "_truehd_atmos.mlp",
			XMLFileName:          r.id.ShortHash + "_encode_truehd_atmos.xml",
			SpatialClusters:      r.req.SpatialClusters,
			DialogueIntelligence: r.req.DialogueIntelligence,
			DialogueLevel:        0,
		})
		if err != nil {
			return services.Wrap(services.ErrValidation, "encode_truehd", "write job config", err.Error(), err)
		}
		r.jobConfigs = append(r.jobConfigs, jobPath)

		r.status.Info("Starting TrueHD Atmos encoding...")
		measured, err := o.runEncode(ctx, logger, "TrueHD Atmos", jobPath, nil)
		if err != nil {
			return err
		}
		r.measured = measured

		deliverable := r.id.Deliverable(r.outputDir, "_truehd_atmos.mlp")
		if err := artifacts.Place(r.id.Intermediate(r.outputDir, "_truehd_atmos.mlp"), deliverable); err != nil {
			return err
		}
		r.deliverables = append(r.deliverables, Deliverable{Label: "TrueHD Atmos", Path: deliverable})
		r.status.OK("Saved: " + filepath.Base(deliverable))
		return nil
	}); err != nil {
		return err
	}

	return o.finishCleanup(ctx, r)
}
