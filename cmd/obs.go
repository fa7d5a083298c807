package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duckai/ducktrack/internal/obs"
)

var obsCmd = &cobra.Command{
	Use:   "obs",
	Short: "Show OBS Studio status on this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("binary:  %s\n", obs.FindBinary())
		fmt.Printf("running: %v\n", obs.IsRunning())
		fmt.Printf("address: %s:%d\n", cfg.Recorder.Host, cfg.Recorder.Port)
		return nil
	},
}

var obsLaunchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Launch OBS Studio in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		if obs.IsRunning() {
			fmt.Println("OBS is already running")
			return nil
		}
		if _, err := obs.Launch(); err != nil {
			return err
		}
		fmt.Println("OBS launched")
		return nil
	},
}

func init() {
	obsCmd.AddCommand(obsLaunchCmd)
}
