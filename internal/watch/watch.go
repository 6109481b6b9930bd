// Package watch implements `--watch` mode for the CLI driver: recompile a
// source file whenever it changes on disk. fsnotify delivers change events;
// jpillora/backoff governs retry spacing when a recompile attempt fails
// (e.g. the file is mid-write), both pulled in (as indirect deps of a
// cobra/viper-style stack) by gaarutyunov-guix's go.mod and exercised
// directly here for the first time in this repo.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jpillora/backoff"
)

// CompileFunc runs one compilation attempt over path.
type CompileFunc func(path string) error

// Run watches path and calls compile on every write event, until ctx is
// canceled. A failing compile is retried with exponential backoff instead
// of being reported immediately, since editors commonly emit a burst of
// partial-write events.
func Run(ctx context.Context, path string, compile CompileFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	b := &backoff.Backoff{Min: 50 * time.Millisecond, Max: 2 * time.Second, Factor: 2}

	if err := compile(path); err != nil {
		fmt.Printf("%s\n", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := retryCompile(compile, path, b); err != nil {
				fmt.Printf("%s\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher: %w", err)
		}
	}
}

// retryCompile calls compile until it succeeds, sleeping the next backoff
// delay between attempts. It gives up once the delay reaches b.Max and
// returns the last error. The backoff is reset either way.
func retryCompile(compile CompileFunc, path string, b *backoff.Backoff) error {
	for {
		err := compile(path)
		if err == nil {
			b.Reset()
			return nil
		}
		d := b.Duration()
		if d >= b.Max {
			b.Reset()
			return err
		}
		time.Sleep(d)
	}
}
