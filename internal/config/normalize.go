package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEncoding()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.binaries_dir", &c.Paths.BinariesDir, defaultBinariesDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.value) == "" {
			*f.value = f.fallback
		}
		expanded, err := expandPath(*f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

func (c *Config) normalizeEncoding() {
	enc := &c.Encoding
	fillInt(&enc.AtmosBitrate51, defaultAtmosBitrate51)
	fillInt(&enc.AtmosBitrate71, defaultAtmosBitrate71)
	fillInt(&enc.DDPBitrate, defaultDDPBitrate)
	fillInt(&enc.SpatialClusters, defaultSpatialClusters)
	fillChoice(&enc.DRCProfile, defaultDRCProfile)
	fillChoice(&enc.PreferredDownmix, defaultPreferredDownmix)
	fillChoice(&enc.WarpMode, defaultWarpMode)
}

func (c *Config) normalizeLogging() {
	fillChoice(&c.Logging.Level, defaultLogLevel)
	fillChoice(&c.Logging.Format, "console")
	if c.Logging.Format != "json" {
		c.Logging.Format = "console"
	}
}

// fillChoice trims and lower-cases an enumerated field, applying fallback
// when the result is empty.
func fillChoice(field *string, fallback string) {
	*field = strings.ToLower(strings.TrimSpace(*field))
	if *field == "" {
		*field = fallback
	}
}

func fillInt(field *int, fallback int) {
	if *field == 0 {
		*field = fallback
	}
}
