package modules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"shadowbench/internal/core"
)

// recheckInterval bounds the wait on filesystems that emit no inotify
// events, procfs among them.
const recheckInterval = 100 * time.Millisecond

// WaitReady blocks until path exists, ctx is done, or timeout elapses. The
// parent directory is watched so creation is noticed immediately where the
// filesystem supports it.
func WaitReady(ctx context.Context, path string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: creating watcher: %w", core.ErrModuleUnavailable, err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("%w: watching %s: %w", core.ErrModuleUnavailable, dir, err)
	}

	// Checked after Add so a creation between the two cannot be missed.
	if exists(path) {
		return nil
	}

	ticker := time.NewTicker(recheckInterval)
	defer ticker.Stop()

	target := filepath.Clean(path)
	errs := watcher.Errors
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("%w: watcher closed", core.ErrModuleUnavailable)
			}
			if filepath.Clean(ev.Name) == target && ev.Has(fsnotify.Create) {
				return nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return fmt.Errorf("%w: watching %s: %w", core.ErrModuleUnavailable, dir, err)
		case <-ticker.C:
			if exists(path) {
				return nil
			}
		case <-ctx.Done():
			return fmt.Errorf("%w: %s not ready after %v", core.ErrModuleUnavailable, path, timeout)
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
