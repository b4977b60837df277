// Package version carries build metadata injected at link time via
// -ldflags "-X github.com/itlusions/itlc/pkg/itlc/version.Version=...".
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
	// BuildDate is the build timestamp, injected at build time.
	BuildDate = "unknown"
)

// BuildInfo is the machine-readable shape of the build metadata.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders the one-line form the version command prints by default.
func (i BuildInfo) String() string {
	return fmt.Sprintf("itlc %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildDate)
}
