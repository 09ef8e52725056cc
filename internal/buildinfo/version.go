// Package buildinfo holds values stamped in at link time, e.g.
//
//	go build -ldflags "-X github.com/YoshitsuguKoike/donothing/internal/buildinfo.Version=v1.0.0"
package buildinfo

import "runtime/debug"

var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// GetVersion returns the stamped version, falling back to the module
// version recorded by `go install`, then "dev".
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// GetCommit returns the stamped commit, else the VCS revision from build info
func GetCommit() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
