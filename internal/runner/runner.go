package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Scanner sizing for child output. DEE dumps whole job descriptions onto one
// line, so the cap is well above bufio's default.
const (
	scanBufInitial = 64 * 1024
	scanBufMax     = 1024 * 1024
)

// Options adjust how a command is launched.
type Options struct {
	// Dir sets the working directory for the child process.
	Dir string
}

// Executor abstracts command execution for testability. Run streams combined
// stdout/stderr line-by-line to onLine while the process runs; RunCapture
// blocks and returns the combined output.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, opts Options, onLine func(string)) error
	RunCapture(ctx context.Context, binary string, args []string, opts Options) (string, error)
}

// NewExecutor returns the production executor backed by os/exec.
func NewExecutor() Executor {
	return commandExecutor{}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, opts Options, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Dir = opts.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	// Both pipes feed one callback; serialize so handlers may keep state.
	var mu sync.Mutex
	emit := func(line string) {
		if onLine == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onLine(line)
	}

	var group errgroup.Group
	group.Go(func() error { return forwardLines(stdout, emit) })
	group.Go(func() error { return forwardLines(stderr, emit) })

	if err := group.Wait(); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

func forwardLines(r io.Reader, emit func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scanBufInitial), scanBufMax)
	for scanner.Scan() {
		emit(scanner.Text())
	}
	return scanner.Err()
}

func (commandExecutor) RunCapture(ctx context.Context, binary string, args []string, opts Options) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Dir = opts.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return string(out), ctx.Err()
		}
		return string(out), fmt.Errorf("run command: %w", err)
	}
	return string(out), nil
}

// ExitCode extracts the child's exit code from an executor error. It returns
// -1 when the error does not carry one.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
