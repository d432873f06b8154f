package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"xdl/pkg/checkpoint"
	"xdl/pkg/ui"
)

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect and manage per-user resume state",
	Long: `Inspect and manage the per-user checkpoint files.

A checkpoint records the newest post whose media all downloaded, so a
rerun only fetches what is new. Clearing a checkpoint makes the next
fetch walk the full timeline again; existing files are still skipped.`,
}

// checkpointShowCmd represents the checkpoint show command
var checkpointShowCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Show the stored checkpoint for a user",
	Args:  cobra.ExactArgs(1),
	Run:   runCheckpointShow,
}

// checkpointClearCmd represents the checkpoint clear command
var checkpointClearCmd = &cobra.Command{
	Use:   "clear <username>",
	Short: "Delete the stored checkpoint for a user",
	Args:  cobra.ExactArgs(1),
	Run:   runCheckpointClear,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointClearCmd)
}

func runCheckpointShow(cmd *cobra.Command, args []string) {
	username := args[0]

	store, err := checkpoint.NewStore()
	if err != nil {
		ui.PrintError("Failed to open checkpoint store: %v", err)
		os.Exit(1)
	}

	if !store.Exists(username) {
		ui.PrintInfo("Checkpoint", "none for "+username)
		return
	}

	cp := store.Load(username)
	ui.PrintInfo("User", username)
	ui.PrintInfo("File", store.Path(username))
	ui.PrintInfo("Last downloaded post", cp.LastDownloadedID)
	if cp.LastDownloadedDate != nil {
		ui.PrintInfo("Posted", cp.LastDownloadedDate.Format("2006-01-02"))
	}
	if !cp.LastUpdated.IsZero() {
		ui.PrintInfo("Updated", cp.LastUpdated.Format("2006-01-02 15:04:05"))
	}
}

func runCheckpointClear(cmd *cobra.Command, args []string) {
	username := args[0]

	store, err := checkpoint.NewStore()
	if err != nil {
		ui.PrintError("Failed to open checkpoint store: %v", err)
		os.Exit(1)
	}

	if !store.Exists(username) {
		ui.PrintInfo("Checkpoint", "none for "+username)
		return
	}

	if err := store.Delete(username); err != nil {
		ui.PrintError("Failed to delete checkpoint: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Checkpoint cleared: " + username)
	fmt.Println("The next fetch will walk the full timeline; existing files are still skipped.")
}
