package truehdd

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

// DialogueLevelFloor is the lowest dialnorm value the decoder can report.
// Malformed or out-of-range dialogue lines clamp here instead of failing the
// run.
const DialogueLevelFloor = -31

// StreamInfo holds the facts extracted from the decoder's info subcommand.
// It is computed once per run and immutable afterwards: decode consumes the
// selected presentation, encode consumes the dialogue level.
type StreamInfo struct {
	// AtmosPresent reports whether the stream carries a Dolby Atmos
	// presentation. Absent markers default to false.
	AtmosPresent bool
	// SelectedPresentation is the presentation index of the last dialogue
	// level measurement, nil when no measurement was seen or lookup was
	// disabled.
	SelectedPresentation *int
	// DialogueLevel is the measured dialnorm in dB: 0 when disabled or
	// unmeasured, otherwise floored at -31.
	DialogueLevel int
}

// DecodeRequest describes one decoder invocation.
type DecodeRequest struct {
	// InputPath is the TrueHD/MLP source.
	InputPath string
	// OutputDirName is the per-run directory the decoder writes into,
	// relative to WorkingDir.
	OutputDirName string
	// WorkingDir is the directory the decoder runs in (the shared output
	// directory).
	WorkingDir string
	// WarpMode is forwarded to the decoder when non-empty.
	WarpMode string
	// Presentation selects a specific presentation when non-nil.
	Presentation *int
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

// Client wraps the truehdd decoder CLI.
type Client struct {
	binary string
	exec   runner.Executor
	logger *slog.Logger
}

// New constructs a decoder client around the resolved binary path.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("truehdd binary required")
	}
	client := &Client{
		binary: binary,
		exec:   runner.NewExecutor(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "truehdd")
	return client, nil
}

// Inspect runs the decoder's info subcommand in blocking mode and extracts
// stream facts from its text report. Parsing anomalies inside the report fall
// back to conservative defaults; only a failed subprocess is an error.
func (c *Client) Inspect(ctx context.Context, inputPath string, disableDialnormLookup bool) (StreamInfo, error) {
	output, err := c.exec.RunCapture(ctx, c.binary, []string{"info", inputPath}, runner.Options{})
	if err != nil {
		if ctx.Err() != nil {
			return StreamInfo{}, ctx.Err()
		}
		return StreamInfo{}, services.Wrap(services.ErrExternalTool, "analyze", "truehdd info", exitDetail(err), err)
	}
	return ParseStreamInfo(output, disableDialnormLookup), nil
}

// ParseStreamInfo scans the decoder's info report line by line.
//
// Recognized patterns:
//   - "Dolby Atmos": the first such line's trailing token, lower-cased, is
//     the boolean value; no such line means false.
//   - "Presentation <n>": updates the current presentation context until the
//     next header; a malformed index clears the context.
//   - "Dialogue Level": while a presentation context is active (and lookup
//     enabled) records that presentation and parses the second-to-last token
//     as the level, flooring at -31. Later measurements overwrite earlier
//     ones.
func ParseStreamInfo(output string, disableDialnormLookup bool) StreamInfo {
	info := StreamInfo{}
	lines := strings.Split(output, "\n")

	for _, line := range lines {
		if strings.Contains(line, "Dolby Atmos") {
			fields := strings.Fields(line)
			if len(fields) > 0 {
				info.AtmosPresent = strings.ToLower(fields[len(fields)-1]) == "true"
			}
			break
		}
	}

	var current *int
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Presentation ") {
			fields := strings.Fields(trimmed)
			index, err := strconv.Atoi(fields[1])
			if err != nil {
				current = nil
				continue
			}
			current = &index
		}

		if strings.Contains(line, "Dialogue Level") && current != nil && !disableDialnormLookup {
			selected := *current
			info.SelectedPresentation = &selected
			info.DialogueLevel = parseDialogueLevel(line)
		}
	}

	if disableDialnormLookup {
		info.DialogueLevel = 0
	}
	return info
}

func parseDialogueLevel(line string) int {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return DialogueLevelFloor
	}
	value, err := strconv.Atoi(fields[len(fields)-2])
	if err != nil {
		return DialogueLevelFloor
	}
	if value < DialogueLevelFloor {
		return DialogueLevelFloor
	}
	return value
}

// Decode streams the decoder against the source. The decoder runs with the
// shared output directory as its working directory and drops the Atmos
// triple (or wav) into the per-run subdirectory. Output lines go to the
// debug log; a non-zero exit is fatal.
func (c *Client) Decode(ctx context.Context, req DecodeRequest) error {
	if strings.TrimSpace(req.InputPath) == "" {
		return errors.New("decode input path required")
	}
	if strings.TrimSpace(req.OutputDirName) == "" {
		return errors.New("decode output directory required")
	}

	args := []string{
		"decode",
		"--loglevel", "off",
		"--progress", req.InputPath,
		"--output-path", req.OutputDirName,
		"--bed-conform",
	}
	if req.WarpMode != "" {
		args = append(args, "--warp-mode", req.WarpMode)
	}
	if req.Presentation != nil {
		args = append(args, "--presentation", strconv.Itoa(*req.Presentation))
	}

	logger := logging.WithContext(ctx, c.logger)
	err := c.exec.Run(ctx, c.binary, args, runner.Options{Dir: req.WorkingDir}, func(line string) {
		if strings.TrimSpace(line) == "" {
			return
		}
		logger.Debug("decoder output", logging.String("line", line))
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "decode", "truehdd decode", exitDetail(err), err)
	}
	return nil
}

func exitDetail(err error) string {
	if code := runner.ExitCode(err); code >= 0 {
		return fmt.Sprintf("exit code %d", code)
	}
	return "subprocess failed"
}
