package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels classify every fatal condition a run can hit. Callers match
// with errors.Is; the CLI maps them all to exit code 1.
var (
	ErrToolMissing     = errors.New("tool missing")
	ErrExternalTool    = errors.New("external tool error")
	ErrArtifactMissing = errors.New("artifact missing")
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotFound        = errors.New("not found")
)

// Wrap tags an error with one of the sentinel markers above and a
// "stage: operation: message" detail. Both the marker and the cause stay
// matchable through errors.Is.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	var b strings.Builder
	for _, part := range []string{stage, operation, message} {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(part)
	}
	if b.Len() == 0 {
		return "service failure"
	}
	return b.String()
}
