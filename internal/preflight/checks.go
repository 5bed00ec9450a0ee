package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"atmospress/internal/config"
	"atmospress/internal/deps"
)

// CheckDirectoryAccess verifies path is a directory this process can read,
// write, and traverse.
func CheckDirectoryAccess(name, path string) Result {
	fail := func(problem string) Result {
		return Result{Name: name, Detail: path + " (" + problem + ")"}
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return fail("does not exist")
	case err != nil:
		return fail(fmt.Sprintf("stat: %v", err))
	case !info.IsDir():
		return fail("not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail(fmt.Sprintf("access denied: %v", err))
	}
	return Result{Name: name, Passed: true, Detail: path + " (read/write ok)"}
}

// CheckSameDevice verifies the input file and the output directory sit on the
// same filesystem. The encoding engine reads its input through the storage
// path in the job config, and keeping everything on one device means artifact
// renames stay atomic instead of degrading to copies mid-run.
func CheckSameDevice(inputPath, outputDir string) Result {
	const name = "Same device"

	var inputStat, outputStat unix.Stat_t
	if err := unix.Stat(inputPath, &inputStat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("stat input %s: %v", inputPath, err)}
	}
	if err := unix.Stat(outputDir, &outputStat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("stat output %s: %v", outputDir, err)}
	}
	if inputStat.Dev != outputStat.Dev {
		return Result{Name: name, Detail: fmt.Sprintf("input %s and output %s are on different devices", inputPath, outputDir)}
	}
	return Result{Name: name, Passed: true, Detail: "input and output share a device"}
}

// CheckSystemDeps evaluates every external tool the pipeline can need. The
// tools command uses this to show the full picture; individual runs verify
// the narrower per-kind requirement list instead.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	dir := cfg.Paths.BinariesDir
	requirements := []deps.Requirement{
		{
			Name:        "truehdd",
			Command:     deps.ResolvePath(dir, deps.ToolTruehdd),
			Description: "TrueHD/Atmos decoder",
		},
		{
			Name:        "Dolby Encoding Engine",
			Command:     deps.ResolvePath(dir, deps.ToolDEE),
			Description: "DDP/TrueHD encoder",
		},
		{
			Name:        "eac3_7.1_atmos_fix",
			Command:     deps.ResolvePath(dir, deps.ToolAtmosFix),
			Description: "7.1 E-AC-3 bitstream fix-up",
			Optional:    true,
		},
		{
			Name:        "ffmpeg",
			Command:     deps.ResolvePath(dir, deps.ToolFFmpeg),
			Description: "PCM resampler (wav sources)",
			Optional:    true,
		},
		{
			Name:        "ffprobe",
			Command:     deps.ResolvePath(dir, deps.ToolFFprobe),
			Description: "Stream prober (wav sources)",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}
