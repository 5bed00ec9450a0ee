package artifacts

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"atmospress/internal/logging"
	"atmospress/internal/services"
)

// Sidecar extensions of one decoded Atmos master. The decoder emits all
// three next to each other; the pipeline treats them as a unit.
const (
	ExtAtmos         = ".atmos"
	ExtAtmosAudio    = ".atmos.audio"
	ExtAtmosMetadata = ".atmos.metadata"
)

// TripleExtensions lists the sidecar extensions in canonical order.
var TripleExtensions = []string{ExtAtmos, ExtAtmosAudio, ExtAtmosMetadata}

// Triple holds the resolved paths of one Atmos artifact set.
type Triple struct {
	Atmos    string
	Audio    string
	Metadata string
}

// Paths returns the triple as a slice in canonical extension order.
func (t Triple) Paths() []string {
	return []string{t.Atmos, t.Audio, t.Metadata}
}

func (t *Triple) set(ext, path string) {
	switch ext {
	case ExtAtmos:
		t.Atmos = path
	case ExtAtmosAudio:
		t.Audio = path
	case ExtAtmosMetadata:
		t.Metadata = path
	}
}

// LocateTriple finds the decoder's Atmos output set, searching the per-run
// working directory first and the shared output directory second. A partial
// set is fatal: the error names every missing extension and both search
// locations so the operator can see what the decoder actually produced.
func LocateTriple(workDir, outputDir string) (Triple, error) {
	var triple Triple
	var missing []string
	for _, ext := range TripleExtensions {
		src, ok := findFirstWithSuffix(workDir, ext)
		if !ok {
			src, ok = findFirstWithSuffix(outputDir, ext)
		}
		if !ok {
			missing = append(missing, ext)
			continue
		}
		triple.set(ext, src)
	}
	if len(missing) > 0 {
		detail := fmt.Sprintf("missing %s (searched %s and %s)", strings.Join(missing, ", "), workDir, outputDir)
		return Triple{}, services.Wrap(services.ErrArtifactMissing, "normalize", "locate atmos artifacts", detail, nil)
	}
	return triple, nil
}

// findFirstWithSuffix returns the alphabetically first regular file in dir
// whose lower-cased name ends with suffix. Suffix matching keeps ".atmos"
// from claiming ".atmos.audio" because the comparison anchors at the end of
// the name.
func findFirstWithSuffix(dir, suffix string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), suffix) {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), true
}

// NormalizeTriple places each located file at its canonical hash-prefixed
// path in outputDir and returns the normalized set. Files already at their
// target are left untouched.
func NormalizeTriple(located Triple, outputDir, shortHash string) (Triple, error) {
	normalized := Triple{}
	sources := map[string]string{
		ExtAtmos:         located.Atmos,
		ExtAtmosAudio:    located.Audio,
		ExtAtmosMetadata: located.Metadata,
	}
	for _, ext := range TripleExtensions {
		target := filepath.Join(outputDir, shortHash+ext)
		if err := Place(sources[ext], target); err != nil {
			return Triple{}, services.Wrap(services.ErrExternalTool, "normalize", "place atmos artifact", target, err)
		}
		normalized.set(ext, target)
	}
	return normalized, nil
}

// Place moves src to dst, last-writer-wins. The call is idempotent: placing a
// file onto itself is a no-op, and an existing destination is replaced rather
// than merged. Cross-device renames fall back to a verified copy followed by
// source removal.
func Place(src, dst string) error {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}
	if absSrc == absDst {
		return nil
	}

	if dir := filepath.Dir(absDst); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create destination directory: %w", err)
		}
	}
	if err := os.Remove(absDst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove existing destination: %w", err)
	}

	renameErr := os.Rename(absSrc, absDst)
	if renameErr == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if copyErr := copyFileVerified(absSrc, absDst); copyErr != nil {
			return fmt.Errorf("copy across devices: %w", copyErr)
		}
		if err := os.Remove(absSrc); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove source after copy: %w", err)
		}
		return nil
	}

	return fmt.Errorf("move file: %w", renameErr)
}

// copyFileVerified streams src to dst, hashing on the way through, then
// re-reads dst and compares digests. Decoded Atmos masters are large, and the
// cross-device fallback is the one spot where silent truncation could survive
// into an encode. Removes dst on mismatch.
func copyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	srcHash := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHash))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("copy: %w", err)
	}
	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("short copy: %d of %d bytes", written, srcInfo.Size())
	}

	back, err := os.Open(dst)
	if err != nil {
		return fmt.Errorf("reopen destination: %w", err)
	}
	defer back.Close()
	dstHash := sha256.New()
	if _, err := io.Copy(dstHash, back); err != nil {
		return fmt.Errorf("read back destination: %w", err)
	}
	if !bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil)) {
		_ = os.Remove(dst)
		return errors.New("destination digest does not match source")
	}
	return nil
}

// RemoveTriple deletes the normalized sidecar files for one run. Failures are
// logged and swallowed: leftover intermediates waste disk space but never
// block a finished encode.
func RemoveTriple(logger *slog.Logger, triple Triple) {
	if logger == nil {
		logger = logging.NewNop()
	}
	for _, path := range triple.Paths() {
		if path == "" {
			continue
		}
		if err := RemoveQuiet(path); err != nil {
			logger.Warn("failed to remove atmos intermediate",
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}
}

// RemoveQuiet deletes path, treating "already absent" as success.
func RemoveQuiet(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
