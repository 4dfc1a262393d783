package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestServerStartsAndShutsdown(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "dosetrack-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	cmd := exec.Command(binaryPath, "serve", "-data", tmpDir)
	cmd.Env = append(os.Environ(), "DOSETRACK_SERVER_PORT=18099")
	input, _ := os.Open("/dev/null")
	cmd.Stdin = input
	defer input.Close()

	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	// Give it time to start
	time.Sleep(2 * time.Second)

	if cmd.Process == nil {
		t.Fatal("Server process not running")
	}

	if err := cmd.Process.Kill(); err != nil {
		t.Logf("Warning: Failed to kill server: %v", err)
	}
}

func TestTokenRequiresConfiguredSecret(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "dosetrack-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	cmd := exec.Command(binaryPath, "token", "-data", tmpDir)
	input, _ := os.Open("/dev/null")
	cmd.Stdin = input
	defer input.Close()

	output, err := cmd.CombinedOutput()

	// No admin password configured: must fail with an explanation
	if err == nil {
		t.Fatal("Expected token to fail without configured credentials")
	}
	if len(output) == 0 {
		t.Fatal("Expected error output")
	}
}

func TestServeCreatesDataFiles(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "dosetrack-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	cmd := exec.Command(binaryPath, "serve", "-data", tmpDir)
	cmd.Env = append(os.Environ(), "DOSETRACK_SERVER_PORT=18100")
	input, _ := os.Open("/dev/null")
	cmd.Stdin = input
	defer input.Close()

	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	time.Sleep(2 * time.Second)
	cmd.Process.Kill()

	if _, err := os.Stat(filepath.Join(tmpDir, "dosetrack.db")); err != nil {
		t.Fatalf("serve did not create the sqlite database: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "badger")); err != nil {
		t.Fatalf("serve did not create the badger directory: %v", err)
	}
}
