package collector

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into a fresh temp working directory and restores
// the original directory on cleanup (stand-in for t.Chdir, added in Go 1.24).
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
