package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshharrison/planloom/internal/config"
	"github.com/joshharrison/planloom/internal/logging"
	"github.com/joshharrison/planloom/internal/store"
	"github.com/joshharrison/planloom/internal/ui"
)

const watchDebounce = 200 * time.Millisecond

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-analyze every schedule whenever the workspace file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			events := ui.NewEventFormatter(out, &mu)

			// Engine events go through the formatter as JSON; errors still reach stderr.
			evLogger, err := logging.Build(config.LoggerConfig{Level: "debug", Encoding: "json"}, events, os.Stderr)
			if err != nil {
				return err
			}
			defer evLogger.Sync()

			// The reload callback runs on viper's goroutine; only the watch loop touches cfg.
			reloads := make(chan config.EngineConfig, 1)
			config.Watch(func(c *config.Config) {
				if err := logging.SetLevel(c.Logger.Level); err != nil {
					evLogger.Warn("config reload ignored log level", zap.String("level", c.Logger.Level), zap.Error(err))
				}
				select {
				case <-reloads:
				default:
				}
				reloads <- c.Engine
			})

			return watchWorkspace(ctx, cfg.Workspace.Path, reloads, func() {
				evLogger.Info("workspace changed", zap.String("path", cfg.Workspace.Path))
				reanalyze(out, &mu, evLogger)
			})
		},
	}
}

// reanalyze loads the workspace and prints a summary per schedule. It never
// writes the file back so that the watcher does not trigger itself.
func reanalyze(out io.Writer, mu *sync.Mutex, l *zap.Logger) {
	ws, err := store.Load(cfg.Workspace.Path)
	if err != nil {
		l.Error("workspace unreadable", zap.Error(err))
		return
	}
	e := newEngine(l)
	if err := e.Load(ws.Schedules); err != nil {
		l.Error("workspace invalid", zap.Error(err))
		return
	}
	for _, s := range e.Schedules() {
		rpt, err := analyzeSchedule(e, s.ID)
		if err != nil {
			l.Error("analysis failed", zap.String("schedule_id", s.ID), zap.Error(err))
			continue
		}
		mu.Lock()
		fmt.Fprint(out, rpt.Summary())
		mu.Unlock()
	}
}

// watchWorkspace calls onChange once at start, after every settled burst of
// writes to path and after every engine settings reload, until ctx is done.
// Reloaded settings are applied to cfg on this goroutine.
func watchWorkspace(ctx context.Context, path string, reloads <-chan config.EngineConfig, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and store.Save replace the file by rename.
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	if store.Exists(path) {
		onChange()
	}
	fmt.Fprintf(os.Stderr, "%s watching %s (Ctrl-C to stop)\n", ui.Dim("👀"), path)

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			if store.Exists(path) {
				onChange()
			}
		case ec := <-reloads:
			cfg.Engine = ec
			logger.Debug("engine settings reloaded", zap.Int("in_progress_default", ec.InProgressDefault), zap.String("target_end", ec.TargetEnd))
			if store.Exists(path) {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}
