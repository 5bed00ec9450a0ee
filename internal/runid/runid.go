package runid

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"path/filepath"
	"strings"
)

// HashLength is the number of hex characters kept from the digest. Six
// characters keep intermediate filenames short while making collisions
// between different base names unlikely within one output directory.
const HashLength = 6

// ID identifies one pipeline run. It is derived purely from the input's base
// name so repeated runs on the same source reuse the same working area.
type ID struct {
	// BaseName is the input filename without directory or extension. Final
	// deliverables are named after it.
	BaseName string
	// ShortHash namespaces every intermediate artifact for this run.
	ShortHash string
}

// Derive computes the run identity for an input path.
func Derive(inputPath string) ID {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	sum := md5.Sum([]byte(base)) //nolint:gosec
	return ID{
		BaseName:  base,
		ShortHash: hex.EncodeToString(sum[:])[:HashLength],
	}
}

// WorkDir returns the per-run working directory nested under outputDir.
// Decoder output lands here before normalization.
func (id ID) WorkDir(outputDir string) string {
	return filepath.Join(outputDir, id.ShortHash)
}

// Intermediate returns the path of a hash-prefixed intermediate file in
// outputDir. The suffix must carry its own extension ("_atmos_5_1.eac3").
func (id ID) Intermediate(outputDir, suffix string) string {
	return filepath.Join(outputDir, id.ShortHash+suffix)
}

// Deliverable returns the path of a final, base-name-prefixed file in
// outputDir.
func (id ID) Deliverable(outputDir, suffix string) string {
	return filepath.Join(outputDir, id.BaseName+suffix)
}
