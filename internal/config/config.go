package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir   string `toml:"output_dir"`
	BinariesDir string `toml:"binaries_dir"`
	LogDir      string `toml:"log_dir"`
}

// Encoding contains the default encoder settings. Command-line flags override
// these per invocation.
type Encoding struct {
	AtmosBitrate51       int    `toml:"atmos_bitrate_5_1"`
	AtmosBitrate71       int    `toml:"atmos_bitrate_7_1"`
	DDPBitrate           int    `toml:"ddp_bitrate"`
	DRCProfile           string `toml:"drc_profile"`
	DialogueIntelligence bool   `toml:"dialogue_intelligence"`
	PreferredDownmix     string `toml:"preferred_downmix"`
	WarpMode             string `toml:"warp_mode"`
	SpatialClusters      int    `toml:"spatial_clusters"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for atmospress.
//
// Configuration sections:
//   - Paths: output directory, external tool directory, log directory
//   - Encoding: default bitrates, DRC, downmix, warp mode, spatial clusters
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Encoding Encoding `toml:"encoding"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns where the config file lives unless overridden.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/atmospress/config.toml")
}

// Load reads the config file at path, or searches the default locations when
// path is empty, and layers it over the built-in defaults. The returned
// config is normalized and validated; the boolean reports whether a file was
// actually found.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		raw, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// locate picks the config file to read. An explicit path wins whether or not
// it exists; otherwise the user config dir is tried first, then a project
// file in the working directory.
func locate(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("atmospress.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

// EnsureDirectories creates the output and log directories. The binaries
// directory is left alone; preflight reports it missing instead of creating
// an empty one the tools are not actually in.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if raw == "~" || strings.HasPrefix(raw, "~/") || strings.HasPrefix(raw, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if raw == "~" {
			raw = home
		} else {
			raw = filepath.Join(home, raw[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(raw))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", raw, err)
	}
	return abs, nil
}

// ExpandPath resolves ~ and relative segments the same way config paths are
// resolved, for packages that accept user-supplied paths.
func ExpandPath(raw string) (string, error) {
	return expandPath(raw)
}

// CreateSample writes the annotated sample config to path, replacing any
// half-written file from an interrupted earlier attempt.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := renameio.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
