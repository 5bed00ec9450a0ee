// Package deps resolves and probes the external binaries the pipeline
// drives. Tools live in the configured binaries directory; PATH lookup is
// only a fallback for configurations that leave the directory empty.
package deps

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement names one external binary a run depends on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of probing one requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries probes every requirement in order and reports what a run
// would find. Nothing is executed; availability means the file exists and
// is executable.
func CheckBinaries(requirements []Requirement) []Status {
	statuses := make([]Status, len(requirements))
	for i, req := range requirements {
		statuses[i] = probe(req)
	}
	return statuses
}

func probe(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	// LookPath checks the file in place when the command carries a path
	// separator and searches PATH otherwise.
	if _, err := exec.LookPath(status.Command); err != nil {
		if dir := filepath.Dir(status.Command); dir != "." {
			status.Detail = fmt.Sprintf("not found in %s", dir)
		} else {
			status.Detail = fmt.Sprintf("%s not on PATH", status.Command)
		}
		return status
	}
	status.Available = true
	return status
}

// MissingRequired filters to the required tools a run cannot proceed
// without.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
