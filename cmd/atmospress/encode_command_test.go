package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atmospress/internal/services"
)

func TestEncodeRejectsInvalidBitrate(t *testing.T) {
	h := newCLIHarness(t)
	input := h.writeInput(t, "movie.thd")

	_, _, err := execCLI(t, h.configPath, "encode", "-i", input, "--bitrate-atmos-5-1", "999")
	if err == nil {
		t.Fatal("expected invalid bitrate to fail")
	}
	requireContains(t, err.Error(), "--bitrate-atmos-5-1 must be one of")
}

func TestEncodeRejectsUnknownAtmosMode(t *testing.T) {
	h := newCLIHarness(t)
	input := h.writeInput(t, "movie.thd")

	_, _, err := execCLI(t, h.configPath, "encode", "-i", input, "--atmos-mode", "stereo")
	if err == nil {
		t.Fatal("expected invalid mode to fail")
	}
	requireContains(t, err.Error(), "unknown atmos mode")
}

func TestEncodeRejectsUnsupportedExtension(t *testing.T) {
	h := newCLIHarness(t)
	input := h.writeInput(t, "song.mp3")

	_, _, err := execCLI(t, h.configPath, "encode", "-i", input)
	if err == nil {
		t.Fatal("expected unsupported extension to fail")
	}
	requireContains(t, err.Error(), "unsupported input extension")
}

func TestEncodeFailsFastWhenToolsMissing(t *testing.T) {
	h := newCLIHarness(t)
	input := h.writeInput(t, "movie.thd")

	out, _, err := execCLI(t, h.configPath, "encode", "-i", input)
	if !errors.Is(err, services.ErrToolMissing) {
		t.Fatalf("expected tool-missing error, got %v", err)
	}
	requireContains(t, err.Error(), "truehdd")
	if strings.Contains(out, "Reading TrueHD stream info") {
		t.Fatalf("expected no pipeline work after failed preflight, got %q", out)
	}
}

func TestEncodeDirectoryBatchFailsFastInOrder(t *testing.T) {
	h := newCLIHarness(t)
	h.writeInput(t, "b.wav")
	h.writeInput(t, "a.thd")
	h.writeInput(t, "notes.txt")
	inDir := filepath.Join(h.baseDir, "in")

	out, _, err := execCLI(t, h.configPath, "encode", "-i", inDir)
	if !errors.Is(err, services.ErrToolMissing) {
		t.Fatalf("expected tool-missing error, got %v", err)
	}
	requireContains(t, out, "Processing a.thd (1 of 2)")
	if strings.Contains(out, "b.wav") {
		t.Fatalf("expected batch to stop before b.wav, got %q", out)
	}
}

func TestEncodeRejectsEmptyDirectory(t *testing.T) {
	h := newCLIHarness(t)
	inDir := filepath.Join(h.baseDir, "in")
	if err := os.MkdirAll(inDir, 0o755); err != nil {
		t.Fatalf("create input dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(inDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, _, err := execCLI(t, h.configPath, "encode", "-i", inDir)
	if err == nil {
		t.Fatal("expected empty directory to fail")
	}
	requireContains(t, err.Error(), "no supported input files")
}

func TestEncodeRequiresInputFlag(t *testing.T) {
	h := newCLIHarness(t)

	_, _, err := execCLI(t, h.configPath, "encode")
	if err == nil {
		t.Fatal("expected missing --input to fail")
	}
	requireContains(t, err.Error(), "input")
}
