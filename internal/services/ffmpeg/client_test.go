package ffmpeg_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"atmospress/internal/runner"
	"atmospress/internal/services"
	"atmospress/internal/services/ffmpeg"
)

type stubExecutor struct {
	err error

	lastBinary string
	lastArgs   []string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, opts runner.Options, onLine func(string)) error {
	s.lastBinary = binary
	s.lastArgs = append([]string(nil), args...)
	return s.err
}

func (s *stubExecutor) RunCapture(ctx context.Context, binary string, args []string, opts runner.Options) (string, error) {
	s.lastBinary = binary
	s.lastArgs = append([]string(nil), args...)
	return "", s.err
}

func TestResampleBuildsArguments(t *testing.T) {
	exec := &stubExecutor{}
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	req := ffmpeg.ResampleRequest{
		InputPath:  "/in/show.wav",
		OutputPath: "/out/9a0364_48k.wav",
	}
	if err := client.Resample(context.Background(), req); err != nil {
		t.Fatalf("Resample returned error: %v", err)
	}

	want := "-i /in/show.wav -ar 48000 -c:a pcm_s24le -y /out/9a0364_48k.wav"
	if got := strings.Join(exec.lastArgs, " "); got != want {
		t.Fatalf("unexpected args:\n got %q\nwant %q", got, want)
	}
}

func TestResampleCustomRate(t *testing.T) {
	exec := &stubExecutor{}
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	req := ffmpeg.ResampleRequest{InputPath: "/in/show.wav", OutputPath: "/out/show.wav", SampleRate: 44100}
	if err := client.Resample(context.Background(), req); err != nil {
		t.Fatalf("Resample returned error: %v", err)
	}
	if !strings.Contains(strings.Join(exec.lastArgs, " "), "-ar 44100") {
		t.Fatalf("expected custom rate in args, got %v", exec.lastArgs)
	}
}

func TestResampleRequiresPaths(t *testing.T) {
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(&stubExecutor{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := client.Resample(context.Background(), ffmpeg.ResampleRequest{OutputPath: "/out/a.wav"}); err == nil {
		t.Fatal("expected error for missing input")
	}
	if err := client.Resample(context.Background(), ffmpeg.ResampleRequest{InputPath: "/in/a.wav"}); err == nil {
		t.Fatal("expected error for missing output")
	}
}

func TestResampleWrapsFailure(t *testing.T) {
	exec := &stubExecutor{err: errors.New("conversion failed")}
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	req := ffmpeg.ResampleRequest{InputPath: "/in/a.wav", OutputPath: "/out/a.wav"}
	if err := client.Resample(context.Background(), req); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
