package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"atmospress/internal/artifacts"
	"atmospress/internal/config"
	"atmospress/internal/deps"
	"atmospress/internal/logging"
	"atmospress/internal/media/ffprobe"
	"atmospress/internal/preflight"
	"atmospress/internal/progress"
	"atmospress/internal/runid"
	"atmospress/internal/services"
	"atmospress/internal/services/atmosfix"
	"atmospress/internal/services/dee"
	"atmospress/internal/services/ffmpeg"
	"atmospress/internal/services/truehdd"
)

// StreamService analyzes and decodes TrueHD/Atmos bitstreams.
type StreamService interface {
	Inspect(ctx context.Context, inputPath string, disableDialnormLookup bool) (truehdd.StreamInfo, error)
	Decode(ctx context.Context, req truehdd.DecodeRequest) error
}

// EncodeService drives the encoding engine.
type EncodeService interface {
	Version(ctx context.Context) (string, error)
	Encode(ctx context.Context, jobPath string, onProgress dee.ProgressFunc) (*int, error)
}

// FixService repairs the channel assignment of 7.1 E-AC-3 encodes.
type FixService interface {
	Fix(ctx context.Context, inPath, outPath string) error
}

// ResampleService converts PCM sources to the encoder's required rate.
type ResampleService interface {
	Resample(ctx context.Context, req ffmpeg.ResampleRequest) error
}

// ProbeFunc inspects a media file and reports its streams.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Request describes one run. Zero-valued encoder settings fall back to the
// configuration defaults; an empty Kind is detected from the input extension.
type Request struct {
	InputPath string
	Kind      Kind
	// Mode selects the Atmos encode passes; ignored by PCM and ADM kinds.
	Mode Mode

	AtmosBitrate51        int
	AtmosBitrate71        int
	DDPBitrate            int
	DRCProfile            string
	DialogueIntelligence  bool
	DisableDialnormLookup bool
	PreferredDownmix      string
	WarpMode              string
	SpatialClusters       int

	// OnAnalyzed, when set, receives the stream facts right after analysis
	// succeeds and before decoding starts. Atmos runs only.
	OnAnalyzed func(truehdd.StreamInfo)
}

// Deliverable is one final output placed under its base-name path.
type Deliverable struct {
	Label string
	Path  string
}

// Result summarizes a completed run.
type Result struct {
	RunID runid.ID
	Kind  Kind
	Mode  Mode
	State State
	// Stream holds the decoder analysis for Atmos runs, nil otherwise.
	Stream *truehdd.StreamInfo
	// Dialnorm is the dialogue level carried into the deliverables: the
	// measured TrueHD level for Atmos runs, the engine measurement for
	// PCM and ADM runs, 0 when nothing was measured.
	Dialnorm     int
	Deliverables []Deliverable
	Elapsed      time.Duration
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStatusSink routes user-facing status lines.
func WithStatusSink(sink StatusSink) Option {
	return func(o *Orchestrator) {
		if sink != nil {
			o.status = sink
		}
	}
}

// WithProgressWriter sets the destination for live progress bars. Defaults
// to stdout; logs and status lines go elsewhere so the bar owns the line.
func WithProgressWriter(w io.Writer) Option {
	return func(o *Orchestrator) {
		if w != nil {
			o.progressOut = w
		}
	}
}

// WithToolVersion stamps patched Atmos metadata with the given version.
func WithToolVersion(version string) Option {
	return func(o *Orchestrator) {
		if strings.TrimSpace(version) != "" {
			o.toolVersion = version
		}
	}
}

// WithStreamService replaces the TrueHD decoder client.
func WithStreamService(svc StreamService) Option {
	return func(o *Orchestrator) {
		if svc != nil {
			o.decoder = svc
		}
	}
}

// WithEncodeService replaces the encoding engine client.
func WithEncodeService(svc EncodeService) Option {
	return func(o *Orchestrator) {
		if svc != nil {
			o.encoder = svc
		}
	}
}

// WithFixService replaces the 7.1 fix-up client.
func WithFixService(svc FixService) Option {
	return func(o *Orchestrator) {
		if svc != nil {
			o.fixer = svc
		}
	}
}

// WithResampleService replaces the PCM resampler client.
func WithResampleService(svc ResampleService) Option {
	return func(o *Orchestrator) {
		if svc != nil {
			o.resampler = svc
		}
	}
}

// WithProbe replaces the media prober.
func WithProbe(probe ProbeFunc) Option {
	return func(o *Orchestrator) {
		if probe != nil {
			o.probe = probe
		}
	}
}

// Orchestrator executes mastering runs against one configuration.
type Orchestrator struct {
	cfg         *config.Config
	logger      *slog.Logger
	status      StatusSink
	progressOut io.Writer
	toolVersion string

	decoder   StreamService
	encoder   EncodeService
	fixer     FixService
	resampler ResampleService
	probe     ProbeFunc
}

// New builds an orchestrator whose tool clients resolve their binaries from
// the configured binaries directory. Missing binaries surface during the
// preflight stage of a run, not here.
func New(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: configuration required")
	}
	o := &Orchestrator{
		cfg:         cfg,
		logger:      logging.NewNop(),
		status:      NopStatus{},
		progressOut: os.Stdout,
		toolVersion: "dev",
		probe:       ffprobe.Inspect,
	}
	for _, opt := range opts {
		opt(o)
	}

	binDir := cfg.Paths.BinariesDir
	if o.decoder == nil {
		client, err := truehdd.New(deps.ResolvePath(binDir, deps.ToolTruehdd), truehdd.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		o.decoder = client
	}
	if o.encoder == nil {
		client, err := dee.New(deps.ResolvePath(binDir, deps.ToolDEE), dee.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		o.encoder = client
	}
	if o.fixer == nil {
		client, err := atmosfix.New(deps.ResolvePath(binDir, deps.ToolAtmosFix), atmosfix.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		o.fixer = client
	}
	if o.resampler == nil {
		client, err := ffmpeg.New(deps.ResolvePath(binDir, deps.ToolFFmpeg), ffmpeg.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		o.resampler = client
	}
	return o, nil
}

// Execute runs the pipeline for one input. Cancellation terminates the
// active subprocess and surfaces as context.Canceled. Generated job configs
// are removed whether or not the run succeeds; decoded intermediates follow
// the per-mode cleanup policy and stay behind on failure for inspection.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	if err := o.normalizeRequest(&req); err != nil {
		return nil, err
	}

	id := runid.Derive(req.InputPath)
	ctx = services.WithRunID(ctx, id.ShortHash)

	r := &run{
		req:       req,
		id:        id,
		outputDir: o.cfg.Paths.OutputDir,
		workDir:   id.WorkDir(o.cfg.Paths.OutputDir),
		state:     StateInit,
		status:    o.status,
		logger: logging.WithContext(ctx, o.logger).With(
			logging.String(logging.FieldKind, string(req.Kind)),
		),
	}
	defer r.removeJobConfigs()

	r.logger.Info("run started",
		logging.String("input", req.InputPath),
		logging.String(logging.FieldMode, string(req.Mode)),
	)

	var err error
	switch req.Kind {
	case KindAtmosDDP:
		err = o.executeAtmos(ctx, r)
	case KindPCMDDP:
		err = o.executePCM(ctx, r)
	case KindADMTrueHD:
		err = o.executeADM(ctx, r)
	default:
		err = services.Wrap(services.ErrValidation, "plan", "select pipeline", fmt.Sprintf("unknown kind %q", req.Kind), nil)
	}
	if err != nil {
		r.state = StateFailed
		r.logger.Error("run failed", logging.Error(err), logging.Duration("elapsed", time.Since(started)))
		return nil, err
	}

	r.state = StateDone
	elapsed := time.Since(started)
	r.logger.Info("run completed",
		logging.Int("deliverables", len(r.deliverables)),
		logging.Duration("elapsed", elapsed),
	)

	result := &Result{
		RunID:        id,
		Kind:         req.Kind,
		Mode:         req.Mode,
		State:        r.state,
		Dialnorm:     r.effectiveDialnorm(),
		Deliverables: r.deliverables,
		Elapsed:      elapsed,
	}
	if r.hasStream {
		stream := r.stream
		result.Stream = &stream
	}
	return result, nil
}

// normalizeRequest resolves defaults and validates the parts of the request
// the CLI does not already guard.
func (o *Orchestrator) normalizeRequest(req *Request) error {
	if strings.TrimSpace(req.InputPath) == "" {
		return services.Wrap(services.ErrValidation, "plan", "validate input", "input path required", nil)
	}
	abs, err := filepath.Abs(req.InputPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "plan", "validate input", err.Error(), err)
	}
	req.InputPath = abs

	info, err := os.Stat(req.InputPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "plan", "validate input", err.Error(), err)
	}
	if !info.Mode().IsRegular() {
		return services.Wrap(services.ErrValidation, "plan", "validate input", "input must be a regular file", nil)
	}

	if req.Kind == "" {
		kind, err := DetectKind(req.InputPath, false)
		if err != nil {
			return err
		}
		req.Kind = kind
	}
	if req.Mode == "" {
		req.Mode = ModeBoth
	} else if _, err := ParseMode(string(req.Mode)); err != nil {
		return err
	}

	enc := o.cfg.Encoding
	if req.AtmosBitrate51 == 0 {
		req.AtmosBitrate51 = enc.AtmosBitrate51
	}
	if req.AtmosBitrate71 == 0 {
		req.AtmosBitrate71 = enc.AtmosBitrate71
	}
	if req.DDPBitrate == 0 {
		req.DDPBitrate = enc.DDPBitrate
	}
	if req.DRCProfile == "" {
		req.DRCProfile = enc.DRCProfile
	}
	if req.PreferredDownmix == "" {
		req.PreferredDownmix = enc.PreferredDownmix
	}
	if req.WarpMode == "" {
		req.WarpMode = enc.WarpMode
	}
	if req.SpatialClusters == 0 {
		req.SpatialClusters = enc.SpatialClusters
	}
	return nil
}

// run carries the mutable state of one execution.
type run struct {
	req       Request
	id        runid.ID
	outputDir string
	workDir   string
	state     State
	status    StatusSink
	logger    *slog.Logger

	stream       truehdd.StreamInfo
	hasStream    bool
	triple       artifacts.Triple
	resampled    string
	jobConfigs   []string
	measured     *int
	deliverables []Deliverable
}

// effectiveDialnorm is the dialogue level that ended up in the bitstreams.
func (r *run) effectiveDialnorm() int {
	if r.hasStream {
		return r.stream.DialogueLevel
	}
	if r.measured != nil {
		return *r.measured
	}
	return 0
}

// removeJobConfigs deletes every generated job XML. Idempotent; runs
// deferred so configs never outlive the run that wrote them.
func (r *run) removeJobConfigs() {
	for _, path := range r.jobConfigs {
		if err := artifacts.RemoveQuiet(path); err != nil {
			r.logger.Warn("job config removal failed",
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}
	r.jobConfigs = nil
}

// stage executes one pipeline step with stage-scoped logging and moves the
// run to next on success. A context already canceled fails the stage before
// its work starts.
func (o *Orchestrator) stage(ctx context.Context, r *run, name string, next State, fn func(context.Context, *slog.Logger) error) error {
	if err := ctx.Err(); err != nil {
		r.state = StateFailed
		return err
	}
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, r.logger)
	start := time.Now()
	logger.Info("stage started")
	if err := fn(stageCtx, logger); err != nil {
		r.state = StateFailed
		logger.Error("stage failed",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(start)),
		)
		return err
	}
	r.state = next
	logger.Info("stage completed", logging.Duration("elapsed", time.Since(start)))
	return nil
}

// verifyTools fails the run before any subprocess spawns when a binary the
// selected kind and mode depend on is absent, then validates the output
// directory and the same-device constraint that keeps renames atomic.
func (o *Orchestrator) verifyTools(ctx context.Context, r *run) error {
	return o.stage(ctx, r, "preflight", StateToolsVerified, func(ctx context.Context, logger *slog.Logger) error {
		includeDecoder := r.req.Kind == KindAtmosDDP
		includeFix := r.req.Kind == KindAtmosDDP && r.req.Mode.Includes(Mode71)
		includeAudioTools := r.req.Kind != KindAtmosDDP
		statuses := deps.CheckBinaries(deps.PipelineRequirements(o.cfg.Paths.BinariesDir, includeDecoder, includeFix, includeAudioTools))
		if missing := deps.MissingRequired(statuses); len(missing) > 0 {
			names := make([]string, len(missing))
			for i, status := range missing {
				names[i] = status.Name
			}
			return services.Wrap(services.ErrToolMissing, "preflight", "verify binaries", strings.Join(names, ", "), nil)
		}

		if check := preflight.CheckDirectoryAccess("output directory", o.cfg.Paths.OutputDir); !check.Passed {
			return services.Wrap(services.ErrConfiguration, "preflight", "output directory", check.Detail, nil)
		}
		if check := preflight.CheckSameDevice(r.req.InputPath, o.cfg.Paths.OutputDir); !check.Passed {
			return services.Wrap(services.ErrValidation, "preflight", "same-device check", check.Detail, nil)
		}

		if version, err := o.encoder.Version(ctx); err != nil {
			r.status.Warn("Could not determine DEE version.")
			logger.Warn("encoder version probe failed", logging.Error(err))
		} else {
			r.status.Info("DEE Encoder: " + version)
			logger.Info("encoder detected", logging.String("version", version))
		}
		return nil
	})
}

// runEncode drives one engine encode with a live progress bar. The forced
// dialogue level, when non-nil, is displayed from the start; otherwise the
// engine's own loudness measurement appears once reported. Returns the
// measured dialnorm when the engine reported one.
func (o *Orchestrator) runEncode(ctx context.Context, logger *slog.Logger, label, jobPath string, forced *int) (*int, error) {
	renderer := progress.NewRenderer(o.progressOut, logger, label)
	detail := func(update dee.ProgressUpdate) string {
		switch {
		case forced != nil:
			return fmt.Sprintf("dialnorm_Average: %d dB", *forced)
		case update.Dialnorm != nil:
			return fmt.Sprintf("dialnorm_Average: %d dB", *update.Dialnorm)
		default:
			return ""
		}
	}

	measured, err := o.encoder.Encode(ctx, jobPath, func(update dee.ProgressUpdate) {
		renderer.Update(update.Percent, detail(update))
	})
	if err != nil {
		renderer.Interrupt()
		return measured, err
	}

	final := ""
	switch {
	case forced != nil:
		final = fmt.Sprintf("dialnorm_Average: %d dB", *forced)
	case measured != nil:
		final = fmt.Sprintf("dialnorm_Average: %d dB", *measured)
	}
	renderer.Finish(final)
	return measured, nil
}

// finishCleanup removes the intermediates only a finished run can spare:
// the resampled wav and the job configs. The deferred removal in Execute
// covers failed runs; this stage exists so success reaches Cleaned with
// nothing left behind.
func (o *Orchestrator) finishCleanup(ctx context.Context, r *run) error {
	return o.stage(ctx, r, "cleanup", StateCleaned, func(ctx context.Context, logger *slog.Logger) error {
		if r.resampled != "" {
			if err := artifacts.RemoveQuiet(r.resampled); err != nil {
				logger.Warn("resampled intermediate removal failed",
					logging.String("path", r.resampled),
					logging.Error(err),
				)
			}
			r.resampled = ""
		}
		r.removeJobConfigs()
		return nil
	})
}
