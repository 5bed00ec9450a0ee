// Package artifacts locates and relocates the files external tools drop on
// disk. It owns the Atmos triple search across the per-run working directory
// and the shared output directory, the hash-prefixed normalization that later
// stages address files by, and the idempotent cross-device-safe Place move
// used for every rename in the pipeline.
package artifacts
