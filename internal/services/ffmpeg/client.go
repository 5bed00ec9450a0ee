package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"log/slog"

	"atmospress/internal/logging"
	"atmospress/internal/runner"
	"atmospress/internal/services"
)

// TargetSampleRate is the only rate the encoding engine accepts for PCM
// input.
const TargetSampleRate = 48000

// ResampleRequest describes one conversion to encoder-ready PCM.
type ResampleRequest struct {
	// InputPath is the source wav.
	InputPath string
	// OutputPath is the destination wav, overwritten when present.
	OutputPath string
	// SampleRate overrides the target rate when non-zero.
	SampleRate int
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec runner.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger for subprocess output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps ffmpeg for the one conversion this pipeline needs: bringing
// PCM sources to the encoder's required sample rate.
type Client struct {
	binary string
	exec   runner.Executor
	logger *slog.Logger
}

// New constructs a resampler client around the resolved binary path.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary: binary,
		exec:   runner.NewExecutor(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "ffmpeg")
	return client, nil
}

// Resample converts the source to 24-bit PCM at the target rate. ffmpeg's
// stderr chatter is logged at debug; a non-zero exit is fatal.
func (c *Client) Resample(ctx context.Context, req ResampleRequest) error {
	if strings.TrimSpace(req.InputPath) == "" {
		return errors.New("resample input path required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return errors.New("resample output path required")
	}
	rate := req.SampleRate
	if rate <= 0 {
		rate = TargetSampleRate
	}

	args := []string{
		"-i", req.InputPath,
		"-ar", strconv.Itoa(rate),
		"-c:a", "pcm_s24le",
		"-y", req.OutputPath,
	}

	logger := logging.WithContext(ctx, c.logger)
	err := c.exec.Run(ctx, c.binary, args, runner.Options{}, func(line string) {
		if strings.TrimSpace(line) == "" {
			return
		}
		logger.Debug("resample output", logging.String("line", line))
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail := "subprocess failed"
		if code := runner.ExitCode(err); code >= 0 {
			detail = fmt.Sprintf("exit code %d", code)
		}
		return services.Wrap(services.ErrExternalTool, "resample", "ffmpeg", detail, err)
	}
	return nil
}
