// Package cmd implements the command-line interface for ThreadSync.
// It provides the root command and subcommands for managing thread
// synchronization.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/threadsync/cmd/httpd"
	"github.com/jonesrussell/threadsync/cmd/search"
	"github.com/jonesrussell/threadsync/cmd/synccmd"
	"github.com/jonesrussell/threadsync/cmd/threads"
	"github.com/jonesrussell/threadsync/internal/config"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug forces debug-level logging regardless of config.
	debug bool

	// rootCmd represents the root command for the ThreadSync CLI.
	rootCmd = &cobra.Command{
		Use:   "threadsync",
		Short: "Incremental forum thread synchronization",
		Long: `ThreadSync keeps local copies of forum threads in step with their
source. It fetches thread pages, diffs them against the stored state,
and persists only what changed, either on demand or on a watcher
schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Parse flags early so --config reaches Setup before any command runs.
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := config.Setup(cfgFile); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	if debug {
		viper.Set("logging.level", "debug")
		viper.Set("logging.development", true)
	}

	return rootCmd.ExecuteContext(context.Background())
}

// init initializes the root command and its subcommands.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("threadsync version %s\n", version)
		},
	})

	rootCmd.AddCommand(synccmd.Command())
	rootCmd.AddCommand(threads.Command())
	rootCmd.AddCommand(search.Command())
	rootCmd.AddCommand(httpd.Command())
}
