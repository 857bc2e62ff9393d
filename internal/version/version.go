// Package version exposes the build stamp for beefi-capture and
// beefi-extract: a version string plus whatever git/build metadata ldflags
// filled in at link time.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// These are overridden at link time via -ldflags, e.g.
// -X beefi/internal/version.GitCommit=$(git rev-parse HEAD).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	GitBranch = "unknown"
	BuildDate = "unknown"
	BuildUser = "unknown"
)

// unset marks an ldflags variable that was never overridden.
const unset = "unknown"

// BuildInfo is a snapshot of the package vars plus the Go toolchain and
// target platform that produced the running binary.
type BuildInfo struct {
	Version   string
	GitCommit string
	GitBranch string
	BuildUser string
	BuildDate string
	GoVersion string
	Platform  string
}

// Snapshot captures the current build stamp.
func Snapshot() BuildInfo {
	return BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildUser: BuildUser,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetBuildInfo is an alias for Snapshot kept for callers that want the
// older name.
func GetBuildInfo() BuildInfo { return Snapshot() }

// GetVersion returns the bare semantic version, e.g. "0.1.0".
func GetVersion() string {
	return Version
}

// shortCommit trims a git sha1 to its usual 7-character display form,
// leaving anything shorter (or unset) untouched.
func shortCommit(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// GetFullVersion appends a short commit suffix to the version when one is
// known, e.g. "0.1.0-a1b2c3d".
func GetFullVersion() string {
	if GitCommit == unset {
		return Version
	}
	return Version + "-" + shortCommit(GitCommit)
}

// GetVersionInfo renders a multi-line human-readable banner for appName,
// omitting any build-stamp field that was never set by ldflags.
func GetVersionInfo(appName string) string {
	info := Snapshot()

	var line strings.Builder
	fmt.Fprintf(&line, "%s version %s", appName, info.Version)
	if info.GitCommit != unset {
		fmt.Fprintf(&line, " (commit %s)", shortCommit(info.GitCommit))
	}
	if info.GitBranch != unset {
		fmt.Fprintf(&line, " on branch %s", info.GitBranch)
	}

	var b strings.Builder
	b.WriteString(line.String())
	if info.BuildDate != unset {
		fmt.Fprintf(&b, "\nBuilt: %s", info.BuildDate)
		if info.BuildUser != unset {
			fmt.Fprintf(&b, " by %s", info.BuildUser)
		}
	}
	fmt.Fprintf(&b, "\nGo: %s", info.GoVersion)
	fmt.Fprintf(&b, "\nPlatform: %s", info.Platform)

	return b.String()
}
