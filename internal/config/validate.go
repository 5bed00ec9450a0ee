package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Allowed encoder parameter sets. Exported so flag handling can surface the
// same choices the validator enforces.
var (
	AtmosBitrates51      = []int{384, 448, 576, 640, 768, 1024}
	AtmosBitrates71      = []int{1152, 1280, 1536, 1664}
	DDPBitrates          = []int{256, 384, 448, 640, 1024}
	DRCProfiles          = []string{"none", "film_standard", "film_light", "music_standard", "music_light", "speech"}
	DownmixModes         = []string{"loro", "ltrt", "ltrt-pl2", "not_indicated"}
	WarpModes            = []string{"normal", "warping", "prologiciix", "loro"}
	SpatialClusterCounts = []int{12, 14, 16}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.BinariesDir) == "" {
		return errors.New("paths.binaries_dir must be set")
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if !intInSet(c.Encoding.AtmosBitrate51, AtmosBitrates51) {
		return fmt.Errorf("encoding.atmos_bitrate_5_1 must be one of %s", joinInts(AtmosBitrates51))
	}
	if !intInSet(c.Encoding.AtmosBitrate71, AtmosBitrates71) {
		return fmt.Errorf("encoding.atmos_bitrate_7_1 must be one of %s", joinInts(AtmosBitrates71))
	}
	if !intInSet(c.Encoding.DDPBitrate, DDPBitrates) {
		return fmt.Errorf("encoding.ddp_bitrate must be one of %s", joinInts(DDPBitrates))
	}
	if !stringInSet(c.Encoding.DRCProfile, DRCProfiles) {
		return fmt.Errorf("encoding.drc_profile must be one of %s", strings.Join(DRCProfiles, ", "))
	}
	if !stringInSet(c.Encoding.PreferredDownmix, DownmixModes) {
		return fmt.Errorf("encoding.preferred_downmix must be one of %s", strings.Join(DownmixModes, ", "))
	}
	if !stringInSet(c.Encoding.WarpMode, WarpModes) {
		return fmt.Errorf("encoding.warp_mode must be one of %s", strings.Join(WarpModes, ", "))
	}
	if !intInSet(c.Encoding.SpatialClusters, SpatialClusterCounts) {
		return fmt.Errorf("encoding.spatial_clusters must be one of %s", joinInts(SpatialClusterCounts))
	}
	return nil
}

func intInSet(value int, set []int) bool {
	for _, candidate := range set {
		if candidate == value {
			return true
		}
	}
	return false
}

func stringInSet(value string, set []string) bool {
	for _, candidate := range set {
		if candidate == value {
			return true
		}
	}
	return false
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
