// Package progress renders live completion bars and ETA estimates for the
// external encode and decode subprocesses.
package progress
