package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duckai/ducktrack/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore(cfg.RecordingsDirectory)
		if err != nil {
			return err
		}
		entries, err := store.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("No sessions in %s\n", store.Root())
			return nil
		}

		latest, _ := store.Latest()
		for _, entry := range entries {
			marker := " "
			if entry.ID == latest {
				marker = "*"
			}
			status := "incomplete"
			if entry.Complete {
				status = "complete"
			}
			fmt.Printf("%s %-45s %6d events  %s\n", marker, entry.ID, entry.Events, status)
		}
		return nil
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a stored session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore(cfg.RecordingsDirectory)
		if err != nil {
			return err
		}
		if err := store.Rename(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Renamed %s to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsRenameCmd)
}
