package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/eventlog"
	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/notification"
	"github.com/autobrr/qmaint/pkg/reconcile"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle [INSTANCE]",
	Short: "Run a single reconcile cycle and exit",
	Long: `Runs one reconcile cycle for the named instance, or for every
enabled instance when no name is given, then exits.`,

	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		start := time.Now()

		if !initialized {
			initCore(true)
			initialized = true
		}

		log := logger.GetLogger("cycle")

		instance := ""
		if len(args) > 0 {
			instance = args[0]
		}

		events := eventlog.New(config.Config.EventLog)
		defer events.Close()

		notify := notification.NewMulti(config.Config.Notifications)

		runner, err := reconcile.New(config.Config, events, notify, flagDryRun, nil)
		if err != nil {
			log.WithError(err).Fatal("Failed initializing")
		}

		if err := runner.RunOnce(ctx, instance); err != nil {
			log.WithError(err).Fatal("Cycle failed")
		}

		for _, st := range runner.Status().All() {
			log.Infof("%s: %d torrents, %d applied, %d skipped, %d failed",
				st.Instance, st.Torrents, st.Applied, st.Skipped, st.Failed)
		}

		log.Infof("Done in %s", time.Since(start).Truncate(time.Millisecond))
	},
}

func init() {
	rootCmd.AddCommand(cycleCmd)
}
