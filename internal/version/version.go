// Package version carries build metadata injected via ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version, injected at build time.
	Version = "dev"

	// GitCommit is the git commit hash, injected at build time.
	GitCommit = "unknown"

	// BuildDate is the build date, injected at build time.
	BuildDate = "unknown"

	// GoVersion is the Go version used to build.
	GoVersion = runtime.Version()
)

// Info returns the short version string.
func Info() string {
	return Version
}

// Full returns the version with the commit hash when one is known.
func Full() string {
	if GitCommit != "" && GitCommit != "unknown" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		return fmt.Sprintf("%s (%s)", Version, short)
	}
	return Version
}

// UserAgent returns a user agent string for outbound HTTP clients.
func UserAgent() string {
	return fmt.Sprintf("agentx/%s (+knowledge trainer)", Info())
}
