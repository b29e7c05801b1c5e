package testutil

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// GetBinaryPath returns the path to the prodcrew binary for integration tests.
// Build it first with `go build -o prodcrew .` from the module root (or
// `-o bin/prodcrew`). Locations are checked in this order:
// 1. Current directory (./prodcrew)
// 2. Parent directory (../prodcrew), the module root seen from integration_tests
// 3. bin directory (../bin/prodcrew)
func GetBinaryPath() string {
	if _, err := os.Stat("prodcrew"); err == nil {
		return "./prodcrew"
	}
	if _, err := os.Stat("../prodcrew"); err == nil {
		return "../prodcrew"
	}
	binPath := filepath.Join("..", "bin", "prodcrew")
	if _, err := os.Stat(binPath); err == nil {
		return binPath
	}
	return "./prodcrew"
}

// BinaryAvailable reports whether the binary has been built.
func BinaryAvailable() bool {
	_, err := os.Stat(GetBinaryPath())
	return err == nil
}

// Result is the outcome of one binary invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes the binary with args in dir. env entries are appended to the
// current environment.
func Run(t *testing.T, dir string, env []string, args ...string) Result {
	t.Helper()

	binary, err := filepath.Abs(GetBinaryPath())
	if err != nil {
		t.Fatalf("failed to resolve binary path: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("failed to run %s: %v", binary, err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}
