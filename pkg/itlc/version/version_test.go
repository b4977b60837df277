package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GitCommit)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestBuildInfoString(t *testing.T) {
	origV, origC, origD := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origV, origC, origD }()

	Version = "v1.2.3"
	GitCommit = "abc123"
	BuildDate = "2026-01-02T15:04:05Z"
	assert.Equal(t, "itlc v1.2.3 (commit: abc123, built: 2026-01-02T15:04:05Z)", GetBuildInfo().String())
}
