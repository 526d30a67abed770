package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "rewrite golden files")

// Golden compares got against testdata/<name>.golden.
// Run the tests with -update (or TASKSYNC_UPDATE_GOLDEN=1) to rewrite it.
func Golden(t *testing.T, name string, got []byte) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")
	if *update || os.Getenv("TASKSYNC_UPDATE_GOLDEN") != "" {
		require.NoError(t, os.MkdirAll("testdata", 0755))
		require.NoError(t, os.WriteFile(path, got, 0644))
		return
	}

	want, err := os.ReadFile(path)
	require.NoError(t, err, "missing golden file; got:\n%s", got)
	assert.Equal(t, string(want), string(got), "output mismatch for %s", name)
}
