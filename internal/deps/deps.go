// Package deps inspects the external tools the daemon shells out to.
package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Name      string
	Installed bool
	Required  bool
	Path      string
	Version   string
	Note      string
}

// Check looks up one tool and fills in its version when the tool
// supports the given version flag.
func Check(name, versionFlag string) Status {
	path, err := exec.LookPath(name)
	if err != nil {
		return Status{Name: name}
	}

	status := Status{
		Name:      name,
		Installed: true,
		Path:      path,
	}

	if versionFlag == "" {
		return status
	}

	cmd := exec.Command(path, versionFlag)
	output, err := cmd.Output()
	if err == nil {
		// first line carries the version string
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}

	return status
}

// CheckAll reports every tool the pipeline can use. ffmpeg and
// wl-copy are hard requirements; the paste tools are optional
// because clipboard fallback still works without them.
func CheckAll() []Status {
	checks := []struct {
		name        string
		versionFlag string
		required    bool
		note        string
	}{
		{"ffmpeg", "-version", true, "webcam capture"},
		{"wl-copy", "--version", true, "clipboard copy (wl-clipboard)"},
		{"wl-paste", "--version", false, "clipboard round-trip check in doctor (wl-clipboard)"},
		{"wtype", "", false, "paste into active app"},
		{"ydotool", "--help", false, "paste fallback"},
		{"notify-send", "--version", false, "desktop notifications"},
	}

	statuses := make([]Status, 0, len(checks))
	for _, c := range checks {
		s := Check(c.name, c.versionFlag)
		s.Required = c.required
		s.Note = c.note
		statuses = append(statuses, s)
	}

	return statuses
}

// MissingRequired returns the names of required tools that are not
// installed.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if s.Required && !s.Installed {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
