package services_test

import (
	"context"
	"errors"
	"testing"

	"atmospress/internal/services"
)

func TestWrapFormatsDetail(t *testing.T) {
	cause := errors.New("exit status 2")
	err := services.Wrap(services.ErrExternalTool, "encode", "dee", "failed", cause)

	want := "external tool error: encode: dee: failed: exit status 2"
	if got := err.Error(); got != want {
		t.Fatalf("error string = %q, want %q", got, want)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrArtifactMissing, "normalize", "locate", "atmos triple incomplete", nil)

	want := "artifact missing: normalize: locate: atmos triple incomplete"
	if got := err.Error(); got != want {
		t.Fatalf("error string = %q, want %q", got, want)
	}
	if !errors.Is(err, services.ErrArtifactMissing) {
		t.Fatalf("marker lost: %v", err)
	}
}

func TestWrapDefaults(t *testing.T) {
	err := services.Wrap(nil, "", "", "", errors.New("io"))

	want := "external tool error: service failure: io"
	if got := err.Error(); got != want {
		t.Fatalf("error string = %q, want %q", got, want)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id on fresh context")
	}
	ctx = services.WithRunID(ctx, "a1b2c3")
	ctx = services.WithStage(ctx, "encode")
	ctx = services.WithCorrelationID(ctx, "corr-1")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "a1b2c3" {
		t.Fatalf("run id = %q, %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "encode" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if id, ok := services.CorrelationIDFromContext(ctx); !ok || id != "corr-1" {
		t.Fatalf("correlation id = %q, %v", id, ok)
	}
}
