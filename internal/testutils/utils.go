package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// MustWriteFile writes content to path, creating parent directories, or fails the test.
func MustWriteFile(t testing.TB, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "create directory for %q", path)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "write test file %q", path)
}
