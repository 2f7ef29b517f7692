package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/deltawatch/cmd/deltawatch/tui"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/baseline"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/broadcast"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/config"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/engine"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/exclude"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/history"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/logging"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/output"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/types"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/watch"
)

// runWatch is the root command: watch a directory and report size changes.
func runWatch(_ *cobra.Command, args []string) error {
	watchPath := "."
	if len(args) > 0 {
		watchPath = args[0]
	} else if defaultPath := viper.GetString("default_path"); defaultPath != "" {
		watchPath = defaultPath
	}

	expandedPath, err := config.ExpandPath(watchPath)
	if err != nil {
		return fmt.Errorf("failed to expand path: %w", err)
	}

	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", absPath)
		}
		return fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	interactive := !viper.GetBool("no_interactive")

	if err := initLogging(interactive); err != nil {
		return err
	}
	defer func() { _ = logging.Close() }()
	log := logging.Get("main")

	excludePatterns := viper.GetStringSlice("exclude")
	recursive := viper.GetBool("recursive")

	eng, err := engine.New(engine.Config{
		HistoryCapacity: viper.GetInt("max_history"),
		Exclude:         excludePatterns,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	bc := broadcast.New()
	defer bc.Close()

	watcher, err := watch.New(recursive)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Watch(absPath); err != nil {
		return fmt.Errorf("watching %s: %w", absPath, err)
	}
	log.Info("watch started", "path", absPath, "recursive", recursive, "dirs", watcher.WatchedDirs())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go watcher.Run(ctx, func(ev types.Event) {
		if err := eng.Record(ev); err != nil {
			log.Warn("dropping event", "path", ev.Path, "error", err)
			return
		}
		// The watcher delivers events from a single goroutine, so the
		// newest history record belongs to this event. Excluded events
		// never reach the history and are not broadcast.
		if recs := eng.RecentEvents(1); len(recs) == 1 && recs[0].Path == ev.Path {
			bc.Notify(recs[0])
		}
	})

	var scanner *baseline.Scanner
	if viper.GetBool("baseline") {
		scanner = baseline.New(eng, exclude.New(excludePatterns), recursive)
	}

	window := time.Duration(viper.GetInt("window_minutes")) * time.Minute

	if interactive {
		err := tui.Run(tui.Options{
			Root:        absPath,
			Window:      window,
			Top:         viper.GetInt("top"),
			Refresh:     time.Duration(viper.GetFloat64("refresh") * float64(time.Second)),
			ShowEvents:  viper.GetBool("show_events"),
			EventCount:  viper.GetInt("event_count"),
			Engine:      eng,
			Broadcaster: bc,
			Baseline:    scanner,
		})
		if err != nil {
			return err
		}
		printSessionSummary(absPath, eng)
		return nil
	}

	return runNonInteractive(ctx, absPath, eng, scanner, window)
}

// runNonInteractive samples a snapshot every refresh interval until the
// duration elapses or an interrupt arrives, then prints a final report.
func runNonInteractive(ctx context.Context, root string, eng *engine.Engine, scanner *baseline.Scanner, window time.Duration) error {
	if scanner != nil {
		printVerbose("Building baseline for %s", root)
		res, err := scanner.Scan(ctx, root, nil)
		if err != nil {
			return fmt.Errorf("baseline scan: %w", err)
		}
		printVerbose("Baseline: %d files, %d dirs in %s", res.FilesSeen, res.DirsSeen, res.Duration.Round(time.Millisecond))
	}

	formatter, err := output.Get(viper.GetString("output"))
	if err != nil {
		return err
	}

	refresh := time.Duration(viper.GetFloat64("refresh") * float64(time.Second))
	if refresh <= 0 {
		refresh = 2 * time.Second
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	var deadline <-chan time.Time
	duration := viper.GetDuration("duration")
	if duration > 0 {
		printInfo("Watching %s for %s...", root, duration)
		deadline = time.After(duration)
	} else {
		printInfo("Watching %s (Ctrl-C to stop)...", root)
	}

	for {
		select {
		case <-ctx.Done():
			return printReport(root, eng, formatter, window)
		case <-deadline:
			return printReport(root, eng, formatter, window)
		case <-ticker.C:
			if !getQuiet() {
				if err := printReport(root, eng, formatter, window); err != nil {
					return err
				}
			}
		}
	}
}

// printReport formats and prints one snapshot of the engine state.
func printReport(root string, eng *engine.Engine, formatter output.Formatter, window time.Duration) error {
	dirs := eng.ChangedDirs(window)
	if top := viper.GetInt("top"); top > 0 && len(dirs) > top {
		dirs = dirs[:top]
	}

	var events []history.Record
	if viper.GetBool("show_events") {
		events = eng.RecentEvents(viper.GetInt("event_count"))
	}

	result := output.Build(root, window, dirs, events, eng.Totals())

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}

// printSessionSummary prints a one-line recap after the TUI exits.
func printSessionSummary(root string, eng *engine.Engine) {
	totals := eng.Totals()
	var net int64
	for _, d := range eng.ChangedDirs(0) {
		net += d.SizeDelta
	}
	printInfo("Session: %d events across %d directories in %s, net %s (%d excluded)",
		totals.TotalEvents, totals.Directories, root,
		types.FormatDelta(net), totals.ExcludedEvents)
}

// initLogging configures the logging system from merged settings.
func initLogging(tuiMode bool) error {
	level := viper.GetString("logging.level")
	if getVerbose() {
		level = "debug"
	}

	components := map[string]string{}
	for comp, lvl := range viper.GetStringMapString("logging.components") {
		components[comp] = lvl
	}

	if err := logging.Init(logging.Config{
		Level:      level,
		Path:       viper.GetString("logging.path"),
		Components: components,
		TUIMode:    tuiMode,
	}); err != nil {
		printError("failed to initialize logging: %v", err)
		return err
	}
	return nil
}
