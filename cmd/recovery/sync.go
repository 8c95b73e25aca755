// ABOUTME: CLI commands for the Charm KV backend: device linking and cloud sync.
// ABOUTME: Wraps the charm CLI for linking and the kv package for sync, repair, reset, and wipe.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/charmbracelet/charm/kv"
	"github.com/fatih/color"
	"github.com/harperreed/recovery/internal/charm"
	"github.com/harperreed/recovery/internal/config"
	"github.com/spf13/cobra"
)

var (
	syncRepairForce bool
	syncAssumeYes   bool
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Sync recovery data across devices",
	Long: `Sync scores, data points, and decisions across devices with Charm Cloud.

Only used when the configured backend is "charm". Values are encrypted with
your SSH key before upload, and every write is pushed as it happens.

  recovery sync link      # once per device
  recovery sync status    # account and local counts
  recovery sync now       # push and pull immediately

Recovery tools:

  repair   checkpoint the WAL, drop the SHM file, check integrity, vacuum
  reset    replace local data with the cloud copy
  wipe     delete cloud backups and local data`,
	Annotations: map[string]string{skipStorage: "true"},
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to Charm",
	Long: `Link this device to a Charm account, creating one from your SSH key if
needed, then pull what other devices have stored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runCharmCLI("link"); err != nil {
			return fmt.Errorf("failed to link: %w\n\nInstall the charm CLI with: go install github.com/charmbracelet/charm@latest", err)
		}
		color.Green("\n✓ Device linked to Charm")

		if err := syncOnce(); err != nil {
			color.Yellow("⚠ Initial sync skipped: %v", err)
			return nil
		}
		color.Green("✓ Initial sync complete")
		return nil
	},
}

var syncUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Disconnect this device from Charm",
	Long:  `Disconnect this device from Charm. Local recovery data stays in place.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runCharmCLI("unlink"); err != nil {
			return fmt.Errorf("failed to unlink: %w", err)
		}
		color.Green("✓ Device unlinked; local data kept")
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account and local data counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Backend != config.BackendCharm {
			color.Yellow("Configured backend is %s; set \"backend\": \"charm\" to sync.\n", cfg.Backend)
		}

		client, err := charm.InitClient()
		if err != nil {
			color.Yellow("Charm store unavailable: %v", err)
			fmt.Println("Run 'recovery sync link' to connect.")
			return nil
		}
		defer client.Close()

		id, err := client.ID()
		if err != nil {
			color.Yellow("Not linked to Charm")
			fmt.Println("Run 'recovery sync link' to connect.")
			return nil
		}
		fmt.Printf("Charm ID: %s\n\n", id)

		data, err := client.GetAllData(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read local data: %w", err)
		}
		if client.IsReadOnly() {
			color.Yellow("Read-only: another process holds the store")
		}

		perUser := map[string][3]int{}
		for _, s := range data.Scores {
			c := perUser[s.UserID]
			c[0]++
			perUser[s.UserID] = c
		}
		for _, p := range data.DataPoints {
			c := perUser[p.UserID]
			c[1]++
			perUser[p.UserID] = c
		}
		for _, l := range data.AdjustmentLogs {
			c := perUser[l.UserID]
			c[2]++
			perUser[l.UserID] = c
		}
		if len(perUser) == 0 {
			fmt.Println("No local data.")
			return nil
		}

		users := make([]string, 0, len(perUser))
		for u := range perUser {
			users = append(users, u)
		}
		sort.Strings(users)
		fmt.Printf("%s %7s %7s %9s\n", padRight("ATHLETE", 16), "SCORES", "POINTS", "DECISIONS")
		for _, u := range users {
			c := perUser[u]
			fmt.Printf("%s %7d %7d %9d\n", padRight(truncate(u, 16), 16), c[0], c[1], c[2])
		}
		return nil
	},
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Push and pull changes immediately",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := syncOnce(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		color.Green("✓ Sync complete")
		return nil
	},
}

var syncRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair a locked or corrupted local store",
	Long: `Checkpoint the WAL, remove a stale SHM file, run an integrity check, and
vacuum. Use --force to continue past a failed integrity check.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Repairing recovery store...")
		result, err := kv.Repair(charm.DBName, syncRepairForce)

		steps := []struct {
			ok   bool
			name string
		}{
			{result.WalCheckpointed, "WAL checkpointed"},
			{result.ShmRemoved, "SHM file removed"},
			{result.IntegrityOK, "integrity check passed"},
			{result.Vacuumed, "vacuumed"},
		}
		for _, s := range steps {
			if s.ok {
				color.Green("  ✓ %s", s.name)
			} else {
				fmt.Printf("  - %s: no\n", s.name)
			}
		}

		if err != nil {
			if !syncRepairForce {
				color.Yellow("\nRun with --force to attempt recovery anyway.")
			}
			return fmt.Errorf("repair failed: %w", err)
		}
		color.Green("\n✓ Repair complete")
		return nil
	},
}

var syncResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace local data with the cloud copy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !syncAssumeYes && !confirm(os.Stdin, "This DELETES local recovery data and restores it from the cloud. Continue? [y/N]: ", "y", "yes") {
			fmt.Println("Canceled.")
			return nil
		}
		if err := kv.Reset(charm.DBName); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		color.Green("✓ Local data restored from cloud")
		return nil
	},
}

var syncWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete cloud backups and local data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !syncAssumeYes && !confirm(os.Stdin, "This PERMANENTLY DELETES cloud backups and local recovery data. Type 'wipe' to confirm: ", "wipe") {
			fmt.Println("Canceled.")
			return nil
		}
		result, err := kv.Wipe(charm.DBName)
		if err != nil {
			return fmt.Errorf("wipe failed: %w", err)
		}
		color.Green("✓ Wiped %d cloud backups and %d local files", result.CloudBackupsDeleted, result.LocalFilesDeleted)
		return nil
	},
}

func init() {
	syncRepairCmd.Flags().BoolVar(&syncRepairForce, "force", false, "continue even if the integrity check fails")
	for _, c := range []*cobra.Command{syncResetCmd, syncWipeCmd} {
		c.Flags().BoolVarP(&syncAssumeYes, "yes", "y", false, "skip the confirmation prompt")
	}

	syncCmd.AddCommand(syncLinkCmd, syncUnlinkCmd, syncStatusCmd, syncNowCmd, syncRepairCmd, syncResetCmd, syncWipeCmd)
	rootCmd.AddCommand(syncCmd)
}

// runCharmCLI runs the charm binary attached to this terminal.
func runCharmCLI(args ...string) error {
	c := exec.Command("charm", args...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	return c.Run()
}

func syncOnce() error {
	client, err := charm.InitClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Sync()
}

// confirm prints prompt and reports whether the answer read from in is one
// of accepted, ignoring case and surrounding space.
func confirm(in io.Reader, prompt string, accepted ...string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	for _, a := range accepted {
		if answer == a {
			return true
		}
	}
	return false
}
