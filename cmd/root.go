package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"deployadmin/pkg/admin"
	"deployadmin/pkg/config"
	"deployadmin/pkg/framework"
	"deployadmin/pkg/log"
	"deployadmin/pkg/store"
	"deployadmin/pkg/system"

	"github.com/spf13/cobra"
)

type loggerKey struct{}

var (
	dataDir    string
	logLevel   string
	jsonOutput bool
	settings   config.Settings
	cmdRunner  system.CommandRunner = &system.LiveCommandRunner{}
	rootCmd                         = &cobra.Command{
		Use:   "deployadmin",
		Short: "deployadmin installs and updates deployment packages",
		Long: `A deployment admin for bundle-based runtimes. Deployment packages are
installed, updated and uninstalled as a unit: every bundle change runs inside a
session that rolls all of its changes back when any step fails or the session
is cancelled.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			settings, err = config.LoadSettings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				settings.DataDir = dataDir
			}
			if cmd.Flags().Changed("log-level") {
				settings.LogLevel = logLevel
			}

			level, err := log.ParseLevel(settings.LogLevel)
			if err != nil {
				return err
			}
			logger := log.NewSlogLogger(level, cmd.ErrOrStderr())
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, loggerKey{}, log.Logger(logger)))
			return nil
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loggerFrom(cmd *cobra.Command) log.Logger {
	if logger, ok := cmd.Context().Value(loggerKey{}).(log.Logger); ok {
		return logger
	}
	return log.Discard()
}

// newAdmin opens the framework and the package store under the data directory.
func newAdmin(cmd *cobra.Command) (*admin.Admin, error) {
	logger := loggerFrom(cmd)
	fw, err := framework.NewLocal(system.AppFs, filepath.Join(settings.DataDir, "framework"), cmdRunner, logger)
	if err != nil {
		return nil, err
	}
	st, err := store.New(system.AppFs, settings.DataDir)
	if err != nil {
		return nil, err
	}
	return admin.New(fw, system.AppFs, st, logger, admin.Options{
		SnapshotDir:           admin.DefaultSnapshotDir(settings.DataDir),
		StopUnaffectedBundles: settings.StopUnaffectedBundles,
		SessionTimeout:        settings.SessionTimeout,
	}), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "/var/lib/deployadmin", "Directory holding the framework state and installed packages")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}
