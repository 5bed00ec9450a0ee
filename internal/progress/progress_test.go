package progress_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"atmospress/internal/logging"
	"atmospress/internal/progress"
)

func TestEstimateRemaining(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		percent float64
		want    time.Duration
	}{
		{"zero percent", time.Minute, 0, 0},
		{"negative percent", time.Minute, -5, 0},
		{"quarter done", time.Minute, 25, 3 * time.Minute},
		{"half done", 30 * time.Second, 50, 30 * time.Second},
		{"complete", time.Hour, 100, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := progress.EstimateRemaining(tc.elapsed, tc.percent)
			if got != tc.want {
				t.Fatalf("EstimateRemaining(%v, %v) = %v, want %v", tc.elapsed, tc.percent, got, tc.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-time.Second, "00:00:00"},
		{61 * time.Second, "00:01:01"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "03:04:05"},
	}
	for _, tc := range cases {
		if got := progress.FormatClock(tc.in); got != tc.want {
			t.Fatalf("FormatClock(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderLineShape(t *testing.T) {
	line := progress.RenderLine(50, 30*time.Second, "dialnorm_Average: -27 dB")
	if !strings.HasPrefix(line, "\r[") {
		t.Fatalf("expected carriage-return redraw prefix, got %q", line)
	}
	if !strings.Contains(line, " 50.0%") {
		t.Fatalf("expected percent in line, got %q", line)
	}
	if !strings.Contains(line, "elapsed: 00:00:30") {
		t.Fatalf("expected elapsed clock, got %q", line)
	}
	if !strings.Contains(line, "remaining: 00:00:30") {
		t.Fatalf("expected remaining clock, got %q", line)
	}
	if !strings.Contains(line, "dialnorm_Average: -27 dB") {
		t.Fatalf("expected extra detail, got %q", line)
	}

	filled := strings.Count(line, "■")
	unfilled := strings.Count(line, "-")
	if filled != progress.BarWidth/2 {
		t.Fatalf("expected %d filled cells, got %d", progress.BarWidth/2, filled)
	}
	// The clock colons contribute no dashes; remaining dash count is the bar.
	if unfilled < progress.BarWidth/2 {
		t.Fatalf("expected at least %d unfilled cells, got %d", progress.BarWidth/2, unfilled)
	}
}

func TestRenderLineClampsPercent(t *testing.T) {
	over := progress.RenderLine(150, time.Second, "")
	if !strings.Contains(over, "100.0%") {
		t.Fatalf("expected clamp to 100, got %q", over)
	}
	under := progress.RenderLine(-3, time.Second, "")
	if !strings.Contains(under, "  0.0%") {
		t.Fatalf("expected clamp to 0, got %q", under)
	}
}

func TestRendererInteractiveRedrawsInPlace(t *testing.T) {
	var buf bytes.Buffer
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	r := progress.NewRenderer(&buf, logging.NewNop(), "encode",
		progress.WithInteractive(true), progress.WithClock(now))

	clock = clock.Add(10 * time.Second)
	r.Update(25, "")
	clock = clock.Add(10 * time.Second)
	r.Update(50, "")
	r.Finish("dialnorm_Average: -27 dB")

	out := buf.String()
	if strings.Count(out, "\r") != 3 {
		t.Fatalf("expected three in-place redraws, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected Finish to terminate the line, got %q", out)
	}
	if !strings.Contains(out, "100.0%") {
		t.Fatalf("expected final full bar, got %q", out)
	}
}

func TestRendererNonInteractiveStaysQuietOnWriter(t *testing.T) {
	var buf bytes.Buffer
	r := progress.NewRenderer(&buf, logging.NewNop(), "encode",
		progress.WithInteractive(false))

	r.Update(10, "")
	r.Update(99, "")
	r.Finish("")

	if buf.Len() != 0 {
		t.Fatalf("non-interactive renderer must not write to the terminal writer, got %q", buf.String())
	}
}

func TestRendererInterruptEndsOpenLine(t *testing.T) {
	var buf bytes.Buffer
	r := progress.NewRenderer(&buf, logging.NewNop(), "encode",
		progress.WithInteractive(true))

	r.Update(40, "")
	r.Interrupt()

	if !strings.HasSuffix(buf.String(), "\n") {
		t.Fatalf("expected interrupt to close the redraw line, got %q", buf.String())
	}
}
