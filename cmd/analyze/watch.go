package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces the burst of events a single save produces.
const debounce = 200 * time.Millisecond

// runWatch runs a subcommand once, then again after every change to the
// table file, until ctx is cancelled. Failures of the inner command are
// printed and do not stop the watch.
func runWatch(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 || args[0] == "watch" {
		fmt.Fprintln(e.stderr, "watch: need a command to re-run, e.g. watch rank -n 3")
		return errUsage
	}
	if _, ok := commands[args[0]]; !ok {
		fmt.Fprintf(e.stderr, "watch: unknown command %q\n", args[0])
		return errUsage
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and exporters often replace the file
	// rather than write to it in place.
	target, err := filepath.Abs(e.tablePath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	e.logger.Info("watching table", "path", target, "command", args[0])

	e.dispatch(ctx, args)

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer = time.After(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		case <-timer:
			timer = nil
			e.logger.Debug("table changed, re-running", "command", args[0])
			fmt.Fprintln(e.stdout)
			e.dispatch(ctx, args)
		}
	}
}
