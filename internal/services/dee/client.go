package dee

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"log/slog"

	"atmospress/internal/logging"
	"atmospress/internal/runner"
	"atmospress/internal/services"
)

var (
	progressPattern = regexp.MustCompile(`Overall progress: (\d+\.\d+)`)
	loudnessPattern = regexp.MustCompile(`\[Source loudness\].*measured_loudness=(-?\d+\.\d+)`)
	versionPattern  = regexp.MustCompile(`Version\s+([\d.]+)`)
)

// ProgressUpdate carries the encoder's state at one output line. Dialnorm is
// nil until the encoder has reported its source loudness measurement and
// stays set afterwards.
type ProgressUpdate struct {
	Percent  float64
	Dialnorm *int
}

// ProgressFunc receives streaming updates while an encode runs.
type ProgressFunc func(update ProgressUpdate)

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

// Client wraps the Dolby Encoding Engine CLI. All work is described by job
// XML files; the client only launches jobs and interprets the progress
// stream.
type Client struct {
	binary string
	exec   runner.Executor
	logger *slog.Logger
}

// New constructs an encoder client around the resolved binary path.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("dee binary required")
	}
	client := &Client{
		binary: binary,
		exec:   runner.NewExecutor(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "dee")
	return client, nil
}

// Version probes the encoder's self-reported version by running it without
// arguments. The encoder exits non-zero in that mode, so the exit status is
// ignored and only the banner matters.
func (c *Client) Version(ctx context.Context) (string, error) {
	output, runErr := c.exec.RunCapture(ctx, c.binary, nil, runner.Options{})
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if match := versionPattern.FindStringSubmatch(output); match != nil {
		return match[1], nil
	}
	if runErr != nil && strings.TrimSpace(output) == "" {
		return "", fmt.Errorf("probe encoder version: %w", runErr)
	}
	return "", errors.New("version banner not found in encoder output")
}

// Encode runs one job XML to completion, streaming progress to onProgress.
// It returns the dialnorm the encoder measured from source loudness, or nil
// when the job produced no measurement (MLP passthrough jobs do not measure).
func (c *Client) Encode(ctx context.Context, jobPath string, onProgress ProgressFunc) (*int, error) {
	if strings.TrimSpace(jobPath) == "" {
		return nil, errors.New("job path required")
	}

	logger := logging.WithContext(ctx, c.logger)
	var (
		percent  float64
		dialnorm *int
	)

	err := c.exec.Run(ctx, c.binary, []string{"-x", jobPath}, runner.Options{}, func(line string) {
		if strings.TrimSpace(line) == "" {
			return
		}
		logger.Debug("encoder output", logging.String("line", line))

		if match := progressPattern.FindStringSubmatch(line); match != nil {
			if value, err := strconv.ParseFloat(match[1], 64); err == nil {
				percent = value
				if onProgress != nil {
					onProgress(ProgressUpdate{Percent: percent, Dialnorm: dialnorm})
				}
			}
		}

		if dialnorm == nil {
			if match := loudnessPattern.FindStringSubmatch(line); match != nil {
				if loudness, err := strconv.ParseFloat(match[1], 64); err == nil {
					value := int(math.Round(loudness))
					dialnorm = &value
					if onProgress != nil {
						onProgress(ProgressUpdate{Percent: percent, Dialnorm: dialnorm})
					}
				}
			}
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return dialnorm, ctx.Err()
		}
		return dialnorm, services.Wrap(services.ErrExternalTool, "encode", "dee", exitDetail(err), err)
	}
	return dialnorm, nil
}

func exitDetail(err error) string {
	if code := runner.ExitCode(err); code >= 0 {
		return fmt.Sprintf("exit code %d", code)
	}
	return "subprocess failed"
}
