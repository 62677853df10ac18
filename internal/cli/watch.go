package cli

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/akraskov/safemig/internal/reporter"
)

const watchInterval = 2 * time.Second

// watchLoop re-runs the analysis whenever a changeset file changes,
// until the command context is cancelled. Analysis errors are printed
// and the loop keeps going; only the final interrupt ends it.
func watchLoop(cmd *cobra.Command, opts *checkOptions, format reporter.Format, version string) error {
	runOnce := func() {
		if err := runCheck(cmd, opts, format, version); err != nil {
			if _, ok := err.(*ExitError); !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
		}
	}

	last := latestModTime(opts.dir)
	runOnce()
	slog.Info("watching for changes", "dir", opts.dir, "interval", watchInterval)

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
			if mt := latestModTime(opts.dir); mt.After(last) {
				last = mt
				fmt.Fprintln(cmd.OutOrStdout())
				runOnce()
			}
		}
	}
}

// latestModTime finds the newest mtime among changeset files. Walk
// errors are skipped so a half-written file never stops the watcher.
func latestModTime(dir string) time.Time {
	var latest time.Time
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yml" && ext != ".yaml" {
			return nil
		}
		if info, err := d.Info(); err == nil && info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	return latest
}
