// Package ffmpeg wraps the ffmpeg CLI for PCM sample-rate conversion. The
// encoding engine only accepts 48 kHz wav input, so sources probed at any
// other rate pass through here first.
package ffmpeg
