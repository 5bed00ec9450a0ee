package config

const (
	defaultOutputDir   = "~/atmospress/output"
	defaultBinariesDir = "~/.local/share/atmospress/tools"
	defaultLogDir      = "~/.local/share/atmospress/logs"

	defaultAtmosBitrate51 = 1024
	defaultAtmosBitrate71 = 1536
	defaultDDPBitrate     = 1024

	defaultDRCProfile       = "none"
	defaultPreferredDownmix = "not_indicated"
	defaultWarpMode         = "normal"
	defaultSpatialClusters  = 12

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:   defaultOutputDir,
			BinariesDir: defaultBinariesDir,
			LogDir:      defaultLogDir,
		},
		Encoding: Encoding{
			AtmosBitrate51:       defaultAtmosBitrate51,
			AtmosBitrate71:       defaultAtmosBitrate71,
			DDPBitrate:           defaultDDPBitrate,
			DRCProfile:           defaultDRCProfile,
			DialogueIntelligence: true,
			PreferredDownmix:     defaultPreferredDownmix,
			WarpMode:             defaultWarpMode,
			SpatialClusters:      defaultSpatialClusters,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
