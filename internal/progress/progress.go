package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"log/slog"

	"github.com/mattn/go-isatty"

	"atmospress/internal/logging"
)

// BarWidth is the fixed character width of the rendered bar.
const BarWidth = 40

// EstimateRemaining projects the time left from the elapsed wall clock and a
// 0-100 completion percentage. Zero or negative percentages return zero: the
// projection would be undefined and the clock display handles that as 00:00:00.
func EstimateRemaining(elapsed time.Duration, percent float64) time.Duration {
	if percent <= 0 {
		return 0
	}
	total := time.Duration(float64(elapsed) / (percent / 100.0))
	remaining := total - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatClock renders a duration as HH:MM:SS, flooring at zero.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// RenderLine produces one carriage-return-prefixed progress line: a
// fixed-width filled/unfilled bar, the percentage, elapsed and estimated
// remaining clocks, plus an optional trailing detail.
func RenderLine(percent float64, elapsed time.Duration, extra string) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(float64(BarWidth) * percent / 100)
	if filled > BarWidth {
		filled = BarWidth
	}
	bar := strings.Repeat("■", filled) + strings.Repeat("-", BarWidth-filled)

	details := fmt.Sprintf("elapsed: %s, remaining: %s", FormatClock(elapsed), FormatClock(EstimateRemaining(elapsed, percent)))
	if extra != "" {
		details += ", " + extra
	}
	return fmt.Sprintf("\r[%s] %5.1f%% (%s)", bar, percent, details)
}

// Renderer displays live subprocess progress. On a terminal it redraws a
// single bar line in place; everywhere else it samples updates into the
// structured log so batch and CI output stays line-oriented.
type Renderer struct {
	out         io.Writer
	logger      *slog.Logger
	label       string
	start       time.Time
	interactive bool
	sampler     *logging.ProgressSampler
	drew        bool
	now         func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithInteractive forces terminal-style rendering on or off regardless of
// what the output looks like (tests).
func WithInteractive(interactive bool) Option {
	return func(r *Renderer) {
		r.interactive = interactive
	}
}

// NewRenderer starts a progress display labelled for one subprocess run. The
// clock starts immediately.
func NewRenderer(out io.Writer, logger *slog.Logger, label string, opts ...Option) *Renderer {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Renderer{
		out:         out,
		logger:      logger,
		label:       label,
		interactive: writerIsTerminal(out),
		sampler:     logging.NewProgressSampler(5),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.start = r.now()
	return r
}

// Update draws or logs a progress point.
func (r *Renderer) Update(percent float64, extra string) {
	elapsed := r.now().Sub(r.start)
	if r.interactive {
		fmt.Fprint(r.out, RenderLine(percent, elapsed, extra))
		r.drew = true
		return
	}
	if r.sampler.ShouldLog(percent, r.label) {
		attrs := []logging.Attr{
			logging.Float64("percent", percent),
			logging.Duration("elapsed", elapsed),
		}
		if extra != "" {
			attrs = append(attrs, logging.String("detail", extra))
		}
		r.logger.Info(r.label+" progress", logging.Args(attrs...)...)
	}
}

// Finish completes the display with a full bar and terminates the in-place
// line so subsequent output starts cleanly.
func (r *Renderer) Finish(extra string) {
	elapsed := r.now().Sub(r.start)
	if r.interactive {
		fmt.Fprint(r.out, RenderLine(100, elapsed, extra))
		fmt.Fprintln(r.out)
		r.drew = false
		return
	}
	attrs := []logging.Attr{
		logging.Float64("percent", 100),
		logging.Duration("elapsed", elapsed),
	}
	if extra != "" {
		attrs = append(attrs, logging.String("detail", extra))
	}
	r.logger.Info(r.label+" finished", logging.Args(attrs...)...)
}

// Interrupt ends an in-place line without claiming completion, so a
// cancellation message starts on its own row.
func (r *Renderer) Interrupt() {
	if r.interactive && r.drew {
		fmt.Fprintln(r.out)
		r.drew = false
	}
}

func writerIsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
