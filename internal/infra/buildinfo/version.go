// Package buildinfo provides build-time version information.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/braddunbar/bradis/internal/infra/buildinfo.version=v1.0.0"
package buildinfo

import "runtime/debug"

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Info contains build information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Version returns the semantic version, falling back to module build info
// when ldflags were not set.
func Version() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

// Get returns the build information.
func Get() Info {
	goVersion := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		goVersion = info.GoVersion
	}
	return Info{
		Version:   Version(),
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: goVersion,
	}
}

// String returns a formatted version string.
func String() string {
	return Version() + " (" + commit + ") built at " + buildTime
}
