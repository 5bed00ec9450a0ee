// Package pipeline orchestrates one mastering run end to end: tool
// verification, stream analysis, decode, artifact normalization, metadata
// patching, the encode passes, and cleanup. Each run is identified by a
// short hash of the input's base name so intermediates never collide with
// deliverables in the shared output directory.
package pipeline
