package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage deltawatch configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/deltawatch/config.yaml (if set)
  2. ~/.config/deltawatch/config.yaml

Environment variables can override config file settings using the DELTAWATCH_ prefix:
  DELTAWATCH_TOP=5
  DELTAWATCH_MAX_HISTORY=500
  DELTAWATCH_EXCLUDE=*.tmp,*.swp`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		// Show defaults anyway
		cfg = &config.Config{
			DefaultPath:   config.DefaultPath,
			WindowMinutes: config.DefaultWindowMinutes,
			Top:           config.DefaultTop,
			Refresh:       config.DefaultRefresh,
			EventCount:    config.DefaultEventCount,
			Recursive:     true,
			Exclude:       config.DefaultExclusions,
			MaxHistory:    config.DefaultMaxHistory,
			Output:        config.DefaultOutput,
		}
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("default_path:      %s\n", cfg.DefaultPath)
	fmt.Printf("window_minutes:    %d\n", cfg.WindowMinutes)
	fmt.Printf("top:               %d\n", cfg.Top)
	fmt.Printf("refresh:           %.1fs\n", cfg.Refresh)
	fmt.Printf("show_events:       %t\n", cfg.ShowEvents)
	fmt.Printf("event_count:       %d\n", cfg.EventCount)
	fmt.Printf("recursive:         %t\n", cfg.Recursive)
	fmt.Printf("exclude:           %v\n", cfg.Exclude)
	fmt.Printf("max_history:       %d\n", cfg.MaxHistory)
	fmt.Printf("output:            %s\n", cfg.Output)
	fmt.Printf("logging.level:     %s\n", cfg.Logging.Level)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"DELTAWATCH_DEFAULT_PATH",
		"DELTAWATCH_WINDOW_MINUTES",
		"DELTAWATCH_TOP",
		"DELTAWATCH_REFRESH",
		"DELTAWATCH_EXCLUDE",
		"DELTAWATCH_MAX_HISTORY",
		"DELTAWATCH_OUTPUT",
	}
	found := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			found = true
		}
	}
	if !found {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(); err != nil {
		return err
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.yaml")

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	editCmd := exec.Command(editor, configPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return err
	}
	printInfo("Created config file: %s", configPath)
	return nil
}

// runConfigPath prints the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Println(filepath.Join(configDir, "config.yaml"))
	return nil
}
