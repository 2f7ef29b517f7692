package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "deltawatch [path]",
		Short: "Watch a directory tree and attribute size changes",
		Long: `Deltawatch watches a directory tree for filesystem changes and shows,
per directory, how many bytes were gained or lost and by which events.

By default, deltawatch launches a live TUI dashboard. Use --no-interactive
for text output after a fixed duration or until interrupted.

Examples:
  deltawatch                       # Watch current directory with TUI
  deltawatch ~/Downloads           # Watch a specific directory
  deltawatch -m 30 -t 5 .          # 30-minute window, top 5 directories
  deltawatch --show-events .       # Include the recent-events panel
  deltawatch -n -o json -d 1m .    # Watch 1 minute, emit JSON, exit
  deltawatch config init           # Write a default config file`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/deltawatch/config.yaml)")
	rootCmd.PersistentFlags().IntP("minutes", "m", 0, "recency window in minutes (0=all)")
	rootCmd.PersistentFlags().IntP("top", "t", 0, "number of directories to display")
	rootCmd.PersistentFlags().Float64P("refresh", "r", 0, "display refresh interval in seconds")
	rootCmd.PersistentFlags().Bool("show-events", false, "show the recent-events panel")
	rootCmd.PersistentFlags().Int("event-count", 0, "number of recent events to display")
	rootCmd.PersistentFlags().Bool("recursive", true, "watch subdirectories recursively")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().Int("max-history", 0, "event history capacity")
	rootCmd.PersistentFlags().BoolP("no-interactive", "n", false, "disable TUI, use text output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format for non-interactive mode (plain, tsv, json, jsonl)")
	rootCmd.PersistentFlags().Bool("baseline", false, "scan existing files first so pre-existing files get true deltas")
	rootCmd.PersistentFlags().DurationP("duration", "d", 0, "exit after this duration (non-interactive mode)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("window_minutes", rootCmd.PersistentFlags().Lookup("minutes"))
	_ = viper.BindPFlag("top", rootCmd.PersistentFlags().Lookup("top"))
	_ = viper.BindPFlag("refresh", rootCmd.PersistentFlags().Lookup("refresh"))
	_ = viper.BindPFlag("show_events", rootCmd.PersistentFlags().Lookup("show-events"))
	_ = viper.BindPFlag("event_count", rootCmd.PersistentFlags().Lookup("event-count"))
	_ = viper.BindPFlag("recursive", rootCmd.PersistentFlags().Lookup("recursive"))
	_ = viper.BindPFlag("exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("max_history", rootCmd.PersistentFlags().Lookup("max-history"))
	_ = viper.BindPFlag("no_interactive", rootCmd.PersistentFlags().Lookup("no-interactive"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("baseline", rootCmd.PersistentFlags().Lookup("baseline"))
	_ = viper.BindPFlag("duration", rootCmd.PersistentFlags().Lookup("duration"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "deltawatch"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "deltawatch"))
		}
	}

	viper.SetEnvPrefix("DELTAWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Set defaults from config package
	viper.SetDefault("default_path", config.DefaultPath)
	viper.SetDefault("window_minutes", config.DefaultWindowMinutes)
	viper.SetDefault("top", config.DefaultTop)
	viper.SetDefault("refresh", config.DefaultRefresh)
	viper.SetDefault("event_count", config.DefaultEventCount)
	viper.SetDefault("recursive", true)
	viper.SetDefault("exclude", config.DefaultExclusions)
	viper.SetDefault("max_history", config.DefaultMaxHistory)
	viper.SetDefault("output", config.DefaultOutput)
	viper.SetDefault("logging.level", "info")

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
