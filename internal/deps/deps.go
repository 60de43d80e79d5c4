// Package deps checks that the external programs the player drives are
// installed.
package deps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sfjuke/sfjuke/internal/proc"
)

// ErrDependencyMissing is matched by every MissingError.
var ErrDependencyMissing = errors.New("missing required dependencies")

// MissingError lists the required programs that were not found.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDependencyMissing, strings.Join(e.Names, ", "))
}

// Is makes errors.Is(err, ErrDependencyMissing) work.
func (e *MissingError) Is(target error) bool {
	return target == ErrDependencyMissing
}

// Status is the result of checking one dependency.
type Status struct {
	Name         string
	Purpose      string
	Required     bool
	Installed    bool
	Version      string
	Path         string
	Instructions string
}

// Checker checks a single dependency.
type Checker interface {
	Check(ctx context.Context) Status
}

// Package names an installable package per package manager.
type Package struct {
	Apt, Dnf, Pacman, Brew, Choco string
	// URL is shown when no package manager applies.
	URL string
}

// Binary checks for an executable in PATH.
type Binary struct {
	Name     string
	Binary   string
	Purpose  string
	Required bool
	// VersionArgs are passed to the binary to read its version. The first
	// output line is kept. Nil skips the version probe.
	VersionArgs []string
	Package     Package
	Runner      proc.Runner
}

// Check implements Checker.
func (b Binary) Check(ctx context.Context) Status {
	bin := b.Binary
	if bin == "" {
		bin = b.Name
	}
	status := Status{Name: b.Name, Purpose: b.Purpose, Required: b.Required}

	path, err := proc.Locate(bin)
	if err != nil {
		log.Debug("Dependency not found", "name", b.Name, "error", err)
		status.Instructions = b.Instructions()
		return status
	}
	status.Installed = true
	status.Path = path

	if b.VersionArgs != nil {
		runner := b.Runner
		if runner == nil {
			runner = proc.NewExec(2 * time.Second)
		}
		if out, err := runner.Run(ctx, path, b.VersionArgs...); err == nil {
			status.Version = firstLine(string(out))
		} else {
			log.Debug("Version probe failed", "name", b.Name, "error", err)
		}
	}
	return status
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Instructions tells the user how to install the binary on this system.
func (b Binary) Instructions() string {
	p := b.Package
	fallback := "Install " + b.Name + " with your package manager"
	if p.URL != "" {
		fallback = "Download from: " + p.URL
	}

	switch runtime.GOOS {
	case "darwin":
		if p.Brew != "" {
			return "Install with: brew install " + p.Brew
		}
	case "linux":
		distro := detectLinuxDistro()
		switch {
		case (distro == "debian" || distro == "ubuntu") && p.Apt != "":
			return "Install with: sudo apt-get install " + p.Apt
		case (distro == "fedora" || distro == "rhel") && p.Dnf != "":
			return "Install with: sudo dnf install " + p.Dnf
		case distro == "arch" && p.Pacman != "":
			return "Install with: sudo pacman -S " + p.Pacman
		}
	case "windows":
		if p.Choco != "" {
			return "Install with: choco install " + p.Choco
		}
	}
	return fallback
}

// detectLinuxDistro attempts to detect the Linux distribution
func detectLinuxDistro() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "unknown"
	}
	content := strings.ToLower(string(data))
	switch {
	case strings.Contains(content, "ubuntu"):
		return "ubuntu"
	case strings.Contains(content, "debian"):
		return "debian"
	case strings.Contains(content, "fedora"):
		return "fedora"
	case strings.Contains(content, "arch"):
		return "arch"
	case strings.Contains(content, "rhel"), strings.Contains(content, "centos"):
		return "rhel"
	}
	return "unknown"
}

// Tools names the binaries to check.
type Tools struct {
	Renderer string
	Encoder  string
	Midicsv  string
	// NeedMidicsv marks midicsv as required rather than optional.
	NeedMidicsv bool
}

// Checkers returns the checkers for the player's external programs.
func (t Tools) Checkers() []Checker {
	return []Checker{
		Binary{
			Name:        "fluidsynth",
			Binary:      t.Renderer,
			Purpose:     "playback and rendering",
			Required:    true,
			VersionArgs: []string{"--version"},
			Package: Package{
				Apt: "fluidsynth", Dnf: "fluidsynth", Pacman: "fluidsynth",
				Brew: "fluid-synth", Choco: "fluidsynth",
				URL: "https://github.com/FluidSynth/fluidsynth/releases",
			},
		},
		Binary{
			Name:        "lame",
			Binary:      t.Encoder,
			Purpose:     "MP3 export",
			Required:    true,
			VersionArgs: []string{"--version"},
			Package: Package{
				Apt: "lame", Dnf: "lame", Pacman: "lame", Brew: "lame", Choco: "lame",
				URL: "https://lame.sourceforge.io/",
			},
		},
		Binary{
			Name:     "midicsv",
			Binary:   t.Midicsv,
			Purpose:  "MIDI metadata",
			Required: t.NeedMidicsv,
			Package: Package{
				Apt: "midicsv", Pacman: "midicsv",
				URL: "https://www.fourmilab.ch/webtools/midicsv/",
			},
		},
	}
}

// Report holds the results of a check run, in checker order.
type Report struct {
	Statuses []Status
}

// Check runs every checker.
func Check(ctx context.Context, checkers ...Checker) Report {
	var r Report
	for _, c := range checkers {
		s := c.Check(ctx)
		if s.Required && !s.Installed {
			log.Error("Missing required dependency", "name", s.Name, "instructions", s.Instructions)
		} else if s.Installed {
			log.Debug("Dependency found", "name", s.Name, "version", s.Version, "path", s.Path)
		}
		r.Statuses = append(r.Statuses, s)
	}
	return r
}

// Missing returns the required dependencies that are not installed.
func (r Report) Missing() []Status {
	var missing []Status
	for _, s := range r.Statuses {
		if s.Required && !s.Installed {
			missing = append(missing, s)
		}
	}
	return missing
}

// Err returns a *MissingError naming every missing required dependency, or
// nil.
func (r Report) Err() error {
	missing := r.Missing()
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, s := range missing {
		names[i] = s.Name
	}
	return &MissingError{Names: names}
}
