package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/runtime"
	"github.com/autobrr/qmaint/pkg/tracker"
)

var (
	flagConfigFile string
	flagLogFile    string
	flagLogLevel   int
	flagDryRun     bool

	initialized bool
)

var rootCmd = &cobra.Command{
	Use:   "qmaint",
	Short: "A qBittorrent maintenance daemon",
	Long: `A CLI application to keep one or more qBittorrent instances tidy.

It periodically reconciles each instance against configured rules,
tags torrents without hardlinks, pauses duplicate cross-seeds and
flags torrents their tracker no longer knows about.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "config.yaml", "Config file")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Log file")
	rootCmd.PersistentFlags().CountVarP(&flagLogLevel, "verbose", "v", "Verbose mode (-v debug, -vv trace)")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Log actions instead of applying them")
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCore(showAppInfo bool) {
	log := logger.GetLogger("init")

	level := "info"
	switch {
	case flagLogLevel == 1:
		level = "debug"
	case flagLogLevel > 1:
		level = "trace"
	}

	if err := logger.Init(level, flagLogFile); err != nil {
		log.WithError(err).Fatal("Failed initializing logger")
	}

	cfgPath, err := filepath.Abs(flagConfigFile)
	if err != nil {
		log.WithError(err).Fatal("Failed resolving config path")
	}

	if err := config.Init(cfgPath); err != nil {
		log.WithError(err).Fatal("Failed initializing config")
	}

	tracker.Init(config.Config.Trackers)

	if showAppInfo {
		log.Infof("Starting qmaint %s (%s)", runtime.Version, runtime.GitCommit)
		config.ShowUsing()

		if flagDryRun {
			log.Warn("Dry-run enabled, no actions will be applied")
		}
	}
}
