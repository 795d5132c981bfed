package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/eventlog"
	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/notification"
	"github.com/autobrr/qmaint/pkg/reconcile"
	"github.com/autobrr/qmaint/pkg/tracker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the maintenance loop for all enabled instances",
	Long: `Starts one reconcile worker per enabled instance and keeps them
running on the configured interval until interrupted.`,

	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if !initialized {
			initCore(true)
			initialized = true
		}

		log := logger.GetLogger("run")

		events := eventlog.New(config.Config.EventLog)
		defer events.Close()

		notify := notification.NewMulti(config.Config.Notifications)

		runner, err := reconcile.New(config.Config, events, notify, flagDryRun, nil)
		if err != nil {
			log.WithError(err).Fatal("Failed initializing")
		}

		log.Infof("Managing %d instances (%d trackers)", len(config.Config.Instances), tracker.Loaded())

		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Fatal("Runner stopped")
		}

		log.Info("Shutdown complete")
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
