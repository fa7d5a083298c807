package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/duckai/ducktrack/internal/server"
	"github.com/duckai/ducktrack/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local control API",
	Long: `Expose session control over a local HTTP JSON API:

  POST /api/start    begin a session
  POST /api/pause    pause the screen recorder
  POST /api/resume   resume the screen recorder
  POST /api/stop     finish the session
  GET  /api/status   current session state
  GET  /api/sessions stored sessions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := session.NewManager(cfg.SessionOptions())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(manager, cfg.ServerAddr())

		group, groupCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			return srv.Run(groupCtx)
		})
		group.Go(func() error {
			<-groupCtx.Done()
			slog.Info("Shutting down")
			return nil
		})
		return group.Wait()
	},
}
