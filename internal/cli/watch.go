package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pysugar/api-tracker/internal/watcher"
	"github.com/spf13/cobra"
)

// errAutoRefreshOff is returned by watch when auto_refresh is disabled
var errAutoRefreshOff = errors.New("auto_refresh is disabled; enable it with: apitracker config set auto_refresh true")

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Refresh tracked calls whenever a Python file is saved",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.cfg.AutoRefresh {
				return errAutoRefreshOff
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(opts, func(a *app) error {
				w, err := startWatcher(ctx, a, dir, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				defer w.Stop()

				fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for saved .py files (Ctrl+C to stop)\n", dir)
				<-ctx.Done()
				return nil
			})
		},
	}
}

// startWatcher refreshes a's tracker refresh_delay after each save under dir.
// Results are printed to out when it is not nil.
func startWatcher(ctx context.Context, a *app, dir string, out io.Writer) (*watcher.Watcher, error) {
	w, err := watcher.New(a.cfg.RefreshDelay, func(ctx context.Context, path string) {
		calls, err := a.tracker.Refresh(ctx)
		if err != nil {
			log.Printf("[Watcher] Refresh after saving %s failed: %v", filepath.Base(path), err)
			return
		}
		a.saveSession()
		if out != nil {
			fmt.Fprintf(out, "\n%s saved\n", path)
			renderCalls(out, calls)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Stop()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.Start(ctx)
	return w, nil
}
