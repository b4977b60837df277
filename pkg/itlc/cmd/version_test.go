package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"

	"github.com/itlusions/itlc/pkg/itlc/version"
)

func TestVersionCommand(t *testing.T) {
	origVersion := version.Version
	origGitCommit := version.GitCommit
	origBuildDate := version.BuildDate
	defer func() {
		version.Version = origVersion
		version.GitCommit = origGitCommit
		version.BuildDate = origBuildDate
	}()

	version.Version = "v1.2.3"
	version.GitCommit = "abc123"
	version.BuildDate = "2026-08-01T12:00:00Z"

	t.Run("default", func(t *testing.T) {
		root, buf, _ := newTestRoot(t)
		root.SetArgs([]string{"version"})
		require.NoError(t, root.Execute())
		assert.Contains(t, buf.String(), "itlc v1.2.3")
		assert.Contains(t, buf.String(), "commit: abc123")
	})

	t.Run("json", func(t *testing.T) {
		root, buf, _ := newTestRoot(t)
		root.SetArgs([]string{"version", "-o", "json"})
		require.NoError(t, root.Execute())

		var info version.BuildInfo
		require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
		assert.Equal(t, "v1.2.3", info.Version)
	})

	t.Run("yaml", func(t *testing.T) {
		root, buf, _ := newTestRoot(t)
		root.SetArgs([]string{"version", "-o", "yaml"})
		require.NoError(t, root.Execute())

		var info version.BuildInfo
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &info))
		assert.Equal(t, "abc123", info.GitCommit)
	})
}
