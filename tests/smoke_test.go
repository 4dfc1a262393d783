package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Get the project root directory (parent of tests/)
	projectRoot, err := filepath.Abs("..")
	if err != nil {
		panic("Failed to get project root: " + err.Error())
	}

	// Create bin directory if it doesn't exist
	binDir := filepath.Join(projectRoot, "bin")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		panic("Failed to create bin directory: " + err.Error())
	}

	binaryPath = filepath.Join(binDir, "dosetrack_test")

	// Build the binary once
	cmd := exec.Command("go", "build", "-o", binaryPath, filepath.Join(projectRoot, "cmd", "dosetrack"))
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		panic("Failed to build test binary: " + err.Error() + "\n" + string(output))
	}

	exitCode := m.Run()

	// Cleanup
	os.Remove(binaryPath)
	os.Exit(exitCode)
}

func TestBinaryHelp(t *testing.T) {
	cmd := exec.Command(binaryPath, "help")
	input, _ := os.Open("/dev/null")
	cmd.Stdin = input
	defer input.Close()

	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if len(output) == 0 {
		t.Fatal("help produced no output")
	}
}

func TestBinaryVersion(t *testing.T) {
	cmd := exec.Command(binaryPath, "version")
	input, _ := os.Open("/dev/null")
	cmd.Stdin = input
	defer input.Close()

	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if len(output) == 0 {
		t.Fatal("version produced no output")
	}
}

func TestInitWritesConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "dosetrack-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	cmd := exec.Command(binaryPath, "init", "-data", tmpDir)
	input, _ := os.Open("/dev/null")
	cmd.Stdin = input
	defer input.Close()

	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("init failed: %v\n%s", err, output)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "dosetrack.yaml")); err != nil {
		t.Fatalf("init did not write config: %v", err)
	}
}
