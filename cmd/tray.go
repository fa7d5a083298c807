package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/duckai/ducktrack/internal/session"
	"github.com/duckai/ducktrack/internal/tray"
)

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Run the system tray controller",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := session.NewManager(cfg.SessionOptions())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tray.Run(ctx, manager)
		return nil
	},
}
