package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/duckai/ducktrack/internal/obs"
	"github.com/duckai/ducktrack/internal/session"
)

var recordName string

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a session until interrupted",
	Long: `Start a recording session and keep it running until Ctrl+C.
The session directory holds the video, the event log and metadata.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Recorder.AutoLaunch && !obs.IsRunning() {
			process, err := obs.Launch()
			if err != nil {
				slog.Warn("Could not launch OBS, expecting it to be running already", "error", err)
			} else {
				defer obs.Terminate(process)
			}
		}

		manager, err := session.NewManager(cfg.SessionOptions())
		if err != nil {
			return err
		}

		sess, err := manager.Start()
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		slog.Info("Recording... Press Ctrl+C to stop", "path", sess.Path())

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		if err := sess.Stop(); err != nil {
			return fmt.Errorf("failed to stop session: %w", err)
		}

		if recordName != "" {
			if err := manager.Store().Rename(sess.ID(), recordName); err != nil {
				return err
			}
			slog.Info("Session saved", "name", recordName)
		}

		info := sess.Info()
		slog.Info("Session finished",
			"events", info.EventsRecorded,
			"dropped", info.EventsDropped,
			"method", info.Method)
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVarP(&recordName, "name", "n", "", "rename the session directory after stopping")
}
