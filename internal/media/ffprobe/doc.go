// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no atmospress-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties (sample rate, channels, codec)
//   - Format: container-level metadata (duration, size)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods give convenient access to the first audio stream and its
// sample rate, which drive the PCM resample decision.
package ffprobe
