package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

var (
	// These variables are set at build time using -ldflags
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info describes the running binary. It is served by GET /version and
// printed by `execkit version`.
type Info struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit,omitempty"`
	BuildTime time.Time `json:"build_time,omitzero"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	Dirty     bool      `json:"dirty,omitempty"`
	Release   bool      `json:"release"`
}

// Get collects version information from link-time variables and the
// embedded build info.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuildTime = t
		}
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = strings.TrimPrefix(bi.Main.Version, "v")
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = shortCommit(s.Value)
				}
			case "vcs.modified":
				info.Dirty = s.Value == "true"
			case "vcs.time":
				if info.BuildTime.IsZero() {
					if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
						info.BuildTime = t
					}
				}
			}
		}
	}

	info.Release = info.Version != "dev" && !info.Dirty && !strings.Contains(info.Version, "dirty")
	return info
}

// Short returns "version" or "version-commit[-dirty]".
func (i Info) Short() string {
	if i.Commit == "" {
		return i.Version
	}
	if i.Dirty {
		return fmt.Sprintf("%s-%s-dirty", i.Version, i.Commit)
	}
	return fmt.Sprintf("%s-%s", i.Version, i.Commit)
}

// String returns the one-line form used by the CLI.
func (i Info) String() string {
	s := fmt.Sprintf("execkit %s (%s, %s)", i.Short(), i.GoVersion, i.Platform)
	if !i.BuildTime.IsZero() {
		s += " built " + i.BuildTime.UTC().Format(time.RFC3339)
	}
	return s
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
