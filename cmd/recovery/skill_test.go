// ABOUTME: Tests for the install-skill command.
// ABOUTME: Validates skill installation, directory creation, and file content.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestWriteSkillCreatesDirectory verifies that the skill directory is created
// when it doesn't exist.
func TestWriteSkillCreatesDirectory(t *testing.T) {
	tmpHome := t.TempDir()
	skillDir := skillDirFor(tmpHome)

	// Verify parent directories don't exist
	if _, err := os.Stat(filepath.Join(tmpHome, ".claude")); err == nil {
		t.Fatal(".claude directory should not exist yet")
	}

	path, err := writeSkill(skillDir)
	if err != nil {
		t.Fatalf("writeSkill failed: %v", err)
	}

	for _, dir := range []string{
		filepath.Join(tmpHome, ".claude"),
		filepath.Join(tmpHome, ".claude", "skills"),
		filepath.Join(tmpHome, ".claude", "skills", "recovery"),
	} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("Directory %s was not created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}

	if path != filepath.Join(skillDir, "SKILL.md") {
		t.Errorf("writeSkill path = %q, want SKILL.md inside %q", path, skillDir)
	}
}

// TestWriteSkillContent verifies the installed SKILL.md has expected content markers.
func TestWriteSkillContent(t *testing.T) {
	path, err := writeSkill(skillDirFor(t.TempDir()))
	if err != nil {
		t.Fatalf("writeSkill failed: %v", err)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read written skill file: %v", err)
	}

	contentStr := string(written)
	expectedMarkers := []string{
		"name: recovery",
		"description:",
		"## When to use recovery",
		"## Categories",
	}
	for _, marker := range expectedMarkers {
		if !strings.Contains(contentStr, marker) {
			t.Errorf("Expected SKILL.md to contain %q", marker)
		}
	}
}

// TestWriteSkillOverwritesExistingFile verifies that a stale skill file is replaced.
func TestWriteSkillOverwritesExistingFile(t *testing.T) {
	skillDir := skillDirFor(t.TempDir())
	if err := os.MkdirAll(skillDir, 0755); err != nil {
		t.Fatalf("Failed to create skill directory: %v", err)
	}

	skillPath := filepath.Join(skillDir, "SKILL.md")
	oldContent := []byte("# Old Skill\nThis is stale content that should be replaced.")
	if err := os.WriteFile(skillPath, oldContent, 0644); err != nil {
		t.Fatalf("Failed to write old skill file: %v", err)
	}

	if _, err := writeSkill(skillDir); err != nil {
		t.Fatalf("writeSkill failed: %v", err)
	}

	newData, err := os.ReadFile(skillPath)
	if err != nil {
		t.Fatalf("Failed to read new skill file: %v", err)
	}
	if strings.Contains(string(newData), "stale content") {
		t.Error("Old content should have been replaced")
	}
	if !strings.Contains(string(newData), "name: recovery") {
		t.Error("Expected new content to contain 'name: recovery'")
	}
}

// TestWriteSkillFilePermissions verifies the skill file is private to its owner.
func TestWriteSkillFilePermissions(t *testing.T) {
	path, err := writeSkill(skillDirFor(t.TempDir()))
	if err != nil {
		t.Fatalf("writeSkill failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat skill file: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("Expected file mode 0600, got %v", mode)
	}
}

// TestSkillFSReadEmbeddedContent verifies the embedded SKILL.md has frontmatter.
func TestSkillFSReadEmbeddedContent(t *testing.T) {
	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		t.Fatalf("Failed to read embedded skill/SKILL.md: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("Embedded SKILL.md is empty")
	}
	if !strings.HasPrefix(string(content), "---") {
		t.Error("Expected SKILL.md to start with YAML frontmatter (---)")
	}
}

// TestSkillReferencesEveryMCPTool keeps the skill in step with the server's tools.
func TestSkillReferencesEveryMCPTool(t *testing.T) {
	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		t.Fatalf("Failed to read embedded skill: %v", err)
	}

	expectedTools := []string{
		"mcp__recovery__add_data_point",
		"mcp__recovery__compute_score",
		"mcp__recovery__get_score",
		"mcp__recovery__acknowledge_score",
		"mcp__recovery__log_decision",
		"mcp__recovery__get_trend",
		"mcp__recovery__adjustment_history",
	}
	for _, tool := range expectedTools {
		if !strings.Contains(string(content), tool) {
			t.Errorf("Expected embedded SKILL.md to reference %q", tool)
		}
	}

	for _, action := range actionNames() {
		if !strings.Contains(string(content), action) {
			t.Errorf("Expected embedded SKILL.md to document action %q", action)
		}
	}
}

// TestSkillSkipConfirmFlag verifies the flag exists and has correct defaults.
func TestSkillSkipConfirmFlag(t *testing.T) {
	flag := installSkillCmd.Flags().Lookup("yes")
	if flag == nil {
		t.Fatal("Expected --yes flag to be defined")
	}
	if flag.Shorthand != "y" {
		t.Errorf("Expected shorthand 'y', got %q", flag.Shorthand)
	}
	if flag.DefValue != "false" {
		t.Errorf("Expected default value 'false', got %q", flag.DefValue)
	}
}

func TestInstallSkillCmdWithDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := filepath.Join(t.TempDir(), "skills")

	if err := runCLI(t, "install-skill", "--yes", "--dir", dir); err != nil {
		t.Fatalf("install-skill failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "SKILL.md")); err != nil {
		t.Errorf("Expected SKILL.md in %s: %v", dir, err)
	}
}
