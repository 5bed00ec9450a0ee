package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"atmospress/internal/services"
)

// Kind selects the flavor of a run based on what the input carries.
type Kind string

const (
	// KindAtmosDDP decodes a TrueHD/Atmos bitstream and encodes E-AC-3.
	KindAtmosDDP Kind = "atmos_ddp"
	// KindPCMDDP encodes plain PCM straight to E-AC-3 5.1.
	KindPCMDDP Kind = "pcm_ddp"
	// KindADMTrueHD encodes an ADM BWF master to MLP/TrueHD with Atmos.
	KindADMTrueHD Kind = "adm_truehd"
)

func (k Kind) String() string { return string(k) }

// Description returns a human-readable label for tables and logs.
func (k Kind) Description() string {
	switch k {
	case KindAtmosDDP:
		return "TrueHD Atmos to DDP"
	case KindPCMDDP:
		return "PCM to DDP 5.1"
	case KindADMTrueHD:
		return "ADM BWF to TrueHD Atmos"
	default:
		return string(k)
	}
}

// DetectKind maps an input path to its pipeline kind. A wav source is plain
// PCM unless forceTrueHD marks it as an ADM master.
func DetectKind(inputPath string, forceTrueHD bool) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(inputPath))
	switch ext {
	case ".thd", ".mlp":
		return KindAtmosDDP, nil
	case ".adm":
		return KindADMTrueHD, nil
	case ".wav":
		if forceTrueHD {
			return KindADMTrueHD, nil
		}
		return KindPCMDDP, nil
	default:
		return "", services.Wrap(
			services.ErrValidation,
			"plan",
			"detect pipeline kind",
			fmt.Sprintf("unsupported input extension %q", ext),
			nil,
		)
	}
}

// Mode selects which Atmos E-AC-3 layouts a run produces.
type Mode string

const (
	Mode51   Mode = "5.1"
	Mode71   Mode = "7.1"
	ModeBoth Mode = "both"
)

func (m Mode) String() string { return string(m) }

// ParseMode validates a mode flag value.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case Mode51:
		return Mode51, nil
	case Mode71:
		return Mode71, nil
	case ModeBoth:
		return ModeBoth, nil
	default:
		return "", services.Wrap(
			services.ErrValidation,
			"plan",
			"parse atmos mode",
			fmt.Sprintf("unknown atmos mode %q", value),
			nil,
		)
	}
}

// Includes reports whether the requested mode schedules the given encode
// pass. Both schedules 5.1 and 7.1.
func (m Mode) Includes(pass Mode) bool {
	if m == ModeBoth {
		return pass == Mode51 || pass == Mode71
	}
	return m == pass
}

// cleanupTripleAfter decides when the decoded Atmos triple has served its
// last encode. In both mode the 5.1 pass must leave it for the 7.1 pass.
func cleanupTripleAfter(completed, requested Mode) bool {
	if requested == ModeBoth {
		return completed == Mode71
	}
	return completed == requested
}
