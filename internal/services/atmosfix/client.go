package atmosfix

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"atmospress/internal/logging"
	"atmospress/internal/runner"
	"atmospress/internal/services"
)

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

// Client wraps the eac3_7.1_atmos_fix tool that repairs channel mapping in
// 7.1 E-AC-3 bitstreams produced through the Blu-ray encoder backend.
type Client struct {
	binary string
	exec   runner.Executor
	logger *slog.Logger
}

// New constructs a fix client around the resolved binary path.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("fix binary required")
	}
	client := &Client{
		binary: binary,
		exec:   runner.NewExecutor(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "atmosfix")
	return client, nil
}

// Fix rewrites inPath into outPath. The tool is quick relative to the encode
// it follows, so output is captured in one shot and only surfaced on failure.
func (c *Client) Fix(ctx context.Context, inPath, outPath string) error {
	if strings.TrimSpace(inPath) == "" {
		return errors.New("fix input path required")
	}
	if strings.TrimSpace(outPath) == "" {
		return errors.New("fix output path required")
	}

	output, err := c.exec.RunCapture(ctx, c.binary, []string{"-i", inPath, "-o", outPath}, runner.Options{})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.WithContext(ctx, c.logger).Error("fix tool failed",
			logging.String("input", inPath),
			logging.String("output", strings.TrimSpace(output)))
		detail := "subprocess failed"
		if code := runner.ExitCode(err); code >= 0 {
			detail = fmt.Sprintf("exit code %d", code)
		}
		return services.Wrap(services.ErrExternalTool, "fix", "eac3_7.1_atmos_fix", detail, err)
	}
	return nil
}
