// Package ffprobe shells out to ffprobe and decodes the JSON report it
// produces about a media container.
package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the decoded ffprobe report.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream carries the per-stream fields the pipeline reads. ffprobe reports
// several numeric fields as strings; accessors parse them on demand.
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	ChannelLayout string `json:"channel_layout"`
	BitsPerSample int    `json:"bits_per_sample"`
}

// Format carries the container-level fields the pipeline reads.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspect runs ffprobe on path and decodes its report. An empty binary falls
// back to plain "ffprobe" so PATH resolution applies.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}
	if path = strings.TrimSpace(path); path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
	output, err := exec.CommandContext(ctx, binary, args...).CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var report Result
	if err := json.Unmarshal(output, &report); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return report, nil
}

// FirstAudioStream returns the first audio stream in container order.
func (r Result) FirstAudioStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			return stream, true
		}
	}
	return Stream{}, false
}

// AudioStreamCount counts the audio streams in the container.
func (r Result) AudioStreamCount() int {
	n := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			n++
		}
	}
	return n
}

// DurationSeconds returns the container duration, or 0 when ffprobe did not
// report one.
func (r Result) DurationSeconds() float64 {
	if v, ok := parseNumber(r.Format.Duration); ok && v >= 0 {
		return v
	}
	return 0
}

// SampleRateHz returns the stream sample rate, or 0 when the field is absent
// or malformed.
func (s Stream) SampleRateHz() int {
	if v, ok := parseNumber(s.SampleRate); ok && v > 0 {
		return int(v)
	}
	return 0
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil
}
