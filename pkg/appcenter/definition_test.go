package appcenter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReleaseDefinition(t *testing.T) {
	t.Parallel()

	content := `build_version: "1.4.0"
build_number: "256"
binary_path: build/app-release.aab
release_notes: |
  Crash fixes and performance work.
mandatory_update: true
notify_testers: true
destinations:
  - name: Beta Testers
  - id: 00000000-0000-0000-0000-000000000001
build:
  branch_name: main
  commit_hash: 4f2d81c
  commit_message: Fix startup crash
`

	path := filepath.Join(t.TempDir(), "release.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	definition, err := appcenter.LoadReleaseDefinition(path)
	require.NoError(t, err)

	assert.Equal(t, "1.4.0", definition.BuildVersion)
	assert.Equal(t, "256", definition.BuildNumber)
	assert.Equal(t, "build/app-release.aab", definition.BinaryPath)
	assert.Equal(t, "Crash fixes and performance work.\n", definition.ReleaseNotes)
	assert.True(t, definition.MandatoryUpdate)
	assert.True(t, definition.NotifyTesters)

	require.Len(t, definition.Destinations, 2)
	assert.Equal(t, "Beta Testers", definition.Destinations[0].Name)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", definition.Destinations[1].ID)

	require.NotNil(t, definition.Build)
	assert.Equal(t, "main", definition.Build.BranchName)
	assert.Equal(t, "4f2d81c", definition.Build.CommitHash)
	assert.Equal(t, "Fix startup crash", definition.Build.CommitMessage)
}

func TestLoadReleaseDefinition_InvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "release.yaml")
	require.NoError(t, os.WriteFile(path, []byte("notes: [unclosed"), 0o600))

	_, err := appcenter.LoadReleaseDefinition(path)
	require.ErrorIs(t, err, appcenter.ErrInvalidReleaseDefinition)
}

func TestLoadReleaseDefinition_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := appcenter.LoadReleaseDefinition(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading release definition")
}
