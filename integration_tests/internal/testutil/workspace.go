package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestWorkspace creates a unique directory in tmp_integration_tests/ and
// writes config as prodcrew.yaml inside it. The cleanup function keeps the
// directory when PRESERVE_TEST_WORKSPACE is true.
func SetupTestWorkspace(t *testing.T, config string) (string, func()) {
	t.Helper()

	root, err := filepath.Abs(filepath.Join("..", "tmp_integration_tests"))
	require.NoError(t, err, "failed to get workspace root path")

	randomBytes := make([]byte, 4)
	_, err = rand.Read(randomBytes)
	require.NoError(t, err, "failed to generate random bytes")

	testName := strings.ReplaceAll(t.Name(), "/", "_")
	dir := filepath.Join(root, fmt.Sprintf("%s-%s", testName, hex.EncodeToString(randomBytes)))
	require.NoError(t, os.MkdirAll(dir, 0o755), "failed to create test workspace directory")

	if config != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "prodcrew.yaml"), []byte(config), 0o644))
	}

	cleanup := func() {
		if os.Getenv("PRESERVE_TEST_WORKSPACE") == "true" {
			t.Logf("Workspace preserved in: %s", dir)
			return
		}
		if err := os.RemoveAll(dir); err != nil {
			t.Logf("Warning: failed to clean up workspace directory %s: %v", dir, err)
		}
	}
	return dir, cleanup
}
