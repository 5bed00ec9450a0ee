package deps

import (
	"path/filepath"
	"runtime"
)

// Base names of the external tools. Binaries are resolved inside the
// configured binaries directory, never on PATH.
const (
	ToolTruehdd  = "truehdd"
	ToolDEE      = "dee"
	ToolAtmosFix = "eac3_7.1_atmos_fix"
	ToolFFmpeg   = "ffmpeg"
	ToolFFprobe  = "ffprobe"
)

// ExecutableName appends the platform executable suffix.
func ExecutableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

// ResolvePath returns the expected location of a tool inside the binaries
// directory.
func ResolvePath(binariesDir, base string) string {
	return filepath.Join(binariesDir, ExecutableName(base))
}

// PipelineRequirements builds the requirement list for one run. The decoder
// is only needed for TrueHD sources, the fix tool only for 7.1 output, and
// the audio tools only for PCM sources. The encoding engine is always
// required.
func PipelineRequirements(binariesDir string, includeDecoder, includeFix, includeAudioTools bool) []Requirement {
	var reqs []Requirement
	if includeDecoder {
		reqs = append(reqs, Requirement{
			Name:        "truehdd",
			Command:     ResolvePath(binariesDir, ToolTruehdd),
			Description: "TrueHD/Atmos decoder",
		})
	}
	reqs = append(reqs, Requirement{
		Name:        "Dolby Encoding Engine",
		Command:     ResolvePath(binariesDir, ToolDEE),
		Description: "DDP/TrueHD encoder",
	})
	if includeFix {
		reqs = append(reqs, Requirement{
			Name:        "eac3_7.1_atmos_fix",
			Command:     ResolvePath(binariesDir, ToolAtmosFix),
			Description: "7.1 E-AC-3 bitstream fix-up",
		})
	}
	if includeAudioTools {
		reqs = append(reqs, Requirement{
			Name:        "ffmpeg",
			Command:     ResolvePath(binariesDir, ToolFFmpeg),
			Description: "PCM resampler",
		}, Requirement{
			Name:        "ffprobe",
			Command:     ResolvePath(binariesDir, ToolFFprobe),
			Description: "Stream prober",
		})
	}
	return reqs
}
