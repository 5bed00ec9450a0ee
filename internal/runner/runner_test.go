package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"atmospress/internal/runner"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestRunStreamsBothPipes(t *testing.T) {
	script := writeScript(t, "emit", "echo out-line\necho err-line 1>&2\n")

	var mu sync.Mutex
	var lines []string
	exec := runner.NewExecutor()
	err := exec.Run(context.Background(), script, nil, runner.Options{}, func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	sort.Strings(lines)
	if len(lines) != 2 || lines[0] != "err-line" || lines[1] != "out-line" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestRunReportsExitCode(t *testing.T) {
	script := writeScript(t, "fail", "exit 3\n")

	exec := runner.NewExecutor()
	err := exec.Run(context.Background(), script, nil, runner.Options{}, nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if code := runner.ExitCode(err); code != 3 {
		t.Fatalf("expected exit code 3, got %d (%v)", code, err)
	}
}

func TestRunHonorsWorkingDirectory(t *testing.T) {
	script := writeScript(t, "cwd", "pwd\n")
	workDir := t.TempDir()

	var got string
	exec := runner.NewExecutor()
	err := exec.Run(context.Background(), script, nil, runner.Options{Dir: workDir}, func(line string) {
		got = line
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(workDir)
	if err != nil {
		t.Fatalf("resolve workdir: %v", err)
	}
	if got != workDir && got != resolved {
		t.Fatalf("expected cwd %q (or %q), got %q", workDir, resolved, got)
	}
}

func TestRunCancellationKillsChild(t *testing.T) {
	script := writeScript(t, "sleepy", "sleep 30\n")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	exec := runner.NewExecutor()
	err := exec.Run(ctx, script, nil, runner.Options{}, nil)
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("child not killed promptly, took %s", elapsed)
	}
}

func TestRunCaptureCombinesOutput(t *testing.T) {
	script := writeScript(t, "combined", "echo first\necho second 1>&2\n")

	exec := runner.NewExecutor()
	out, err := exec.RunCapture(context.Background(), script, nil, runner.Options{})
	if err != nil {
		t.Fatalf("RunCapture returned error: %v", err)
	}
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Fatalf("expected both streams in output, got %q", out)
	}
}

func TestRunCaptureReturnsOutputOnFailure(t *testing.T) {
	script := writeScript(t, "failout", "echo partial\nexit 2\n")

	exec := runner.NewExecutor()
	out, err := exec.RunCapture(context.Background(), script, nil, runner.Options{})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(out, "partial") {
		t.Fatalf("expected captured output alongside error, got %q", out)
	}
	if code := runner.ExitCode(err); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestExitCodeUnknown(t *testing.T) {
	if code := runner.ExitCode(errors.New("plain")); code != -1 {
		t.Fatalf("expected -1 for plain error, got %d", code)
	}
	if code := runner.ExitCode(nil); code != -1 {
		t.Fatalf("expected -1 for nil error, got %d", code)
	}
}
