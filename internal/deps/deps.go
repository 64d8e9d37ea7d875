package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external program mcexport shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of resolving one Requirement on PATH.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// CheckBinaries resolves every requirement, preserving order.
func CheckBinaries(requirements []Requirement) []Status {
	statuses := make([]Status, len(requirements))
	for idx, req := range requirements {
		statuses[idx] = resolve(req)
	}
	return statuses
}

func resolve(req Requirement) Status {
	st := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if st.Command == "" {
		st.Detail = "command not configured"
		return st
	}
	path, err := exec.LookPath(st.Command)
	if err != nil {
		st.Detail = fmt.Sprintf("binary %q not found", st.Command)
		return st
	}
	st.Available, st.Path = true, path
	return st
}

// MissingRequired filters statuses down to unavailable required programs.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, st := range statuses {
		if st.Optional || st.Available {
			continue
		}
		missing = append(missing, st)
	}
	return missing
}
