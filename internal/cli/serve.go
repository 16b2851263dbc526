package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pysugar/api-tracker/internal/generator"
	"github.com/pysugar/api-tracker/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	var watchDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the monitoring dashboard and its JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(opts, func(a *app) error {
				return serve(ctx, a, watchDir)
			})
		},
	}
	cmd.Flags().StringVar(&watchDir, "watch", "", "also refresh when .py files under this directory are saved")
	return cmd
}

func serve(ctx context.Context, a *app, watchDir string) error {
	persister := generator.NewPersister(a.kv)
	saver := generator.NewDebouncedSaver(persister, generator.SaveDelay)

	if watchDir != "" {
		if !a.cfg.AutoRefresh {
			return errAutoRefreshOff
		}
		w, err := startWatcher(ctx, a, watchDir, nil)
		if err != nil {
			return err
		}
		defer w.Stop()
		log.Printf("[Server] Watching %s for saved .py files", watchDir)
	}

	router := handlers.NewRouter(handlers.Deps{
		Monitor:       a.monitor,
		Tracker:       a.tracker,
		Persister:     persister,
		Saver:         saver,
		AdminPassword: a.cfg.AdminPassword,
		AccessLog:     true,
	})

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Dashboard listening on http://%s (backend %s)", a.cfg.Addr(), a.client.BaseURL())
		if a.cfg.AdminPassword != "" {
			log.Printf("[Server] Admin password protection enabled")
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Printf("[Server] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Server] Shutdown error: %v", err)
		}
	}

	// Write any generator state still waiting for its debounce
	saver.Flush()
	return nil
}
