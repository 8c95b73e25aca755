// ABOUTME: install-skill command: writes the embedded recovery skill for Claude Code.
// ABOUTME: The skill documents the MCP tools and CLI so an assistant can drive the daily loop.
package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

//go:embed skill/SKILL.md
var skillFS embed.FS

var (
	skillSkipConfirm bool
	skillDir         string
)

var installSkillCmd = &cobra.Command{
	Use:   "install-skill",
	Short: "Install Claude Code skill",
	Long: `Install the recovery skill for Claude Code at ~/.claude/skills/recovery/SKILL.md.

With the skill installed, Claude Code can record signals, compute today's score
and prescription, and log what you did with it, through the recovery MCP tools.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := skillDir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			dir = skillDirFor(home)
		}
		target := filepath.Join(dir, "SKILL.md")

		banner := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Render("Recovery skill for Claude Code")
		fmt.Println(banner)
		fmt.Printf("\nDestination: %s\n", target)
		if _, err := os.Stat(target); err == nil {
			color.Yellow("An existing skill file will be overwritten.")
		}
		fmt.Println()

		if !skillSkipConfirm && !confirm(os.Stdin, "Install the recovery skill? [y/N] ", "y", "yes") {
			fmt.Println("Installation canceled.")
			return nil
		}

		path, err := writeSkill(dir)
		if err != nil {
			return err
		}
		color.Green("✓ Installed %s", path)
		fmt.Println("Try asking Claude: \"How recovered am I today?\"")
		return nil
	},
}

func init() {
	installSkillCmd.Flags().BoolVarP(&skillSkipConfirm, "yes", "y", false, "skip the confirmation prompt")
	installSkillCmd.Flags().StringVar(&skillDir, "dir", "", "install into this directory instead of ~/.claude/skills/recovery")
	rootCmd.AddCommand(installSkillCmd)
}

func skillDirFor(home string) string {
	return filepath.Join(home, ".claude", "skills", "recovery")
}

// writeSkill writes the embedded SKILL.md into dir, creating it if needed,
// and returns the file path.
func writeSkill(dir string) (string, error) {
	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		return "", fmt.Errorf("failed to read embedded skill: %w", err)
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create skill directory: %w", err)
	}

	path := filepath.Join(dir, "SKILL.md")
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("failed to write skill file: %w", err)
	}
	return path, nil
}
