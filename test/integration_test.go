// ABOUTME: Integration tests for recovery CLI.
// ABOUTME: Builds the binary and runs the record, score, and decide workflow end to end.
package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFullWorkflow(t *testing.T) {
	// Build the binary
	projectRoot, _ := filepath.Abs("..")
	recoveryBinary := filepath.Join(projectRoot, "recovery")

	buildCmd := exec.Command("go", "build", "-o", recoveryBinary, "./cmd/recovery")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}
	defer os.Remove(recoveryBinary)

	// Use temp data and config directories
	tmpDir := t.TempDir()
	env := append(os.Environ(),
		"XDG_DATA_HOME="+filepath.Join(tmpDir, "data"),
		"XDG_CONFIG_HOME="+filepath.Join(tmpDir, "config"),
		"RECOVERY_USER=integration",
		"NO_COLOR=1",
	)

	run := func(args ...string) (string, error) {
		cmd := exec.Command(recoveryBinary, args...)
		cmd.Env = env
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	// Record today's observations
	output, err := run("data", "add", "--hrv-rmssd", "62", "--resting-hr", "51")
	if err != nil {
		t.Fatalf("Failed to add data: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Recorded manual data") {
		t.Errorf("Expected 'Recorded manual data' in output, got: %s", output)
	}

	output, err = run("data", "add", "--source", "oura", "--sleep-min", "450", "--sleep-efficiency", "91")
	if err != nil {
		t.Fatalf("Failed to add sleep: %v\n%s", err, output)
	}

	// Score today from stored data
	output, err = run("score", "compute", "--from-data")
	if err != nil {
		t.Fatalf("Failed to compute score: %v\n%s", err, output)
	}

	output, err = run("score", "list")
	if err != nil {
		t.Fatalf("Failed to list scores: %v\n%s", err, output)
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected one score, got: %s", output)
	}
	scoreID := strings.Fields(lines[0])[0]

	// Log a decision and read it back
	output, err = run("decide", scoreID, "accepted", "--notes", "easy run")
	if err != nil {
		t.Fatalf("Failed to log decision: %v\n%s", err, output)
	}

	output, err = run("history")
	if err != nil {
		t.Fatalf("Failed to list history: %v\n%s", err, output)
	}
	if !strings.Contains(output, "accepted") || !strings.Contains(output, "easy run") {
		t.Errorf("Expected the accepted decision in history, got: %s", output)
	}

	output, err = run("score", "show", scoreID)
	if err != nil {
		t.Fatalf("Failed to show score: %v\n%s", err, output)
	}
	if !strings.Contains(output, "acknowledged") {
		t.Errorf("Expected the decided score to be acknowledged, got: %s", output)
	}
}
