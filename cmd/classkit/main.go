package main

import (
	"os"

	"github.com/dhamidi/classkit/config"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("classkit")

// cfg is loaded before any subcommand runs.
var cfg = config.Default()

func main() {
	var (
		verbose    int
		configDir  string
		logFile    string
		strictFlag bool
	)

	rootCmd := &cobra.Command{
		Use:           "classkit",
		Short:         "Decode, inspect and re-encode JVM class files",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configDir != "" {
				cfg, err = config.Load(configDir)
			} else {
				cfg, err = config.FindAndLoad(".")
			}
			if err != nil {
				return err
			}
			if verbose > 0 {
				cfg.Log.Verbosity = verbose
			}
			if logFile != "" {
				cfg.Log.File = logFile
			}
			if strictFlag {
				cfg.Decode.Strict = true
			}
			commonlog.Configure(cfg.Log.Verbosity, cfg.LogPath())
			log.Debugf("configuration loaded from %q", cfg.Dir)
			return nil
		},
	}

	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory containing classkit.toml")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&strictFlag, "strict", false, "fail on any diagnostic")

	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newRoundtripCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newDescCmd())
	rootCmd.AddCommand(newFlagsCmd())
	rootCmd.AddCommand(newFramesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
