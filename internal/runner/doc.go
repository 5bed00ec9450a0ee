// Package runner launches the external tools and streams their output. The
// Executor interface is the seam the tool clients accept so tests can swap in
// canned transcripts instead of spawning processes.
package runner
