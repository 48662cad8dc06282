package test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// SetupTestFilesystem returns a filesystem rooted in a temporary directory
// that is removed when the test ends.
func SetupTestFilesystem(t *testing.T) afero.Fs {
	return afero.NewBasePathFs(afero.NewOsFs(), t.TempDir())
}

// CreateTestFile creates a file with content in the test filesystem.
func CreateTestFile(t *testing.T, fs afero.Fs, path, content string) {
	err := fs.MkdirAll(filepath.Dir(path), 0755)
	require.NoError(t, err)
	err = afero.WriteFile(fs, path, []byte(content), 0644)
	require.NoError(t, err)
}

// AssertFileExists checks that a file exists and, unless expectedContent is
// empty, has that content.
func AssertFileExists(t *testing.T, fs afero.Fs, path, expectedContent string) {
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	require.True(t, exists, "File %s should exist", path)

	if expectedContent != "" {
		content, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		require.Equal(t, expectedContent, string(content))
	}
}

// AssertFileNotExists checks that a file does not exist.
func AssertFileNotExists(t *testing.T, fs afero.Fs, path string) {
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	require.False(t, exists, "File %s should not exist", path)
}

// AssertEvents checks the exact sequence of bundle operations.
func AssertEvents(t *testing.T, fw *FakeFramework, expected ...string) {
	if len(expected) == 0 {
		require.Empty(t, fw.Events(), "No bundle operation should have happened")
		return
	}
	require.Equal(t, expected, fw.Events())
}

// AssertCommandExecuted checks that a hook was executed by the mock runner.
func AssertCommandExecuted(t *testing.T, runner *MockCommandRunner, command string) {
	require.Contains(t, runner.Executed(), command, "Command should have been executed: %s", command)
}

// AssertCommandExecutedAs checks that a hook was executed as the given user.
func AssertCommandExecutedAs(t *testing.T, runner *MockCommandRunner, user, command string) {
	require.Contains(t, runner.ExecutedAs(user), command, "Command should have been executed as %q: %s", user, command)
}

// AssertLogContains checks that the logger captured a message containing the substring.
func AssertLogContains(t *testing.T, logger *MockLogger, substring string) {
	require.True(t, logger.HasMessage(substring), "Log should contain: %s", substring)
}
