package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/storekit/internal/config"
	"github.com/vango-dev/storekit/internal/errors"
	"github.com/vango-dev/storekit/internal/tui"
	"github.com/vango-dev/storekit/pkg/inspect"
	"github.com/vango-dev/storekit/pkg/store"
	"github.com/vango-dev/storekit/pkg/telemetry"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a demo store over the HTTP inspector",
		Long: `Start the inspector over the counter store.

The inspector exposes state, selectors and subscriptions as JSON,
accepts PATCH /state, streams changes on /ws and serves Prometheus
metrics on /metrics.

Examples:
  storekit serve
  storekit serve --addr=:7070
  curl -X PATCH localhost:7070/state -d '{"count": 5}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			logger, err := flags.logger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return errors.New("S020").Wrap(err)
			}
			printBanner(cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "  inspector listening on http://%s\n\n", ln.Addr())

			return runServe(ctx, ln, cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from storekit.json)")

	return cmd
}

// newServeHandler builds the counter store and its inspector.
func newServeHandler(cfg *config.Config, logger *slog.Logger) (*inspect.Server, *store.Store) {
	obs := telemetry.New(telemetry.WithNamespace(cfg.MetricsNamespace))
	st := store.New(tui.InitialState(), tui.Selectors(),
		store.WithLogger(logger),
		store.WithObserver(obs),
		store.WithStrictKeys(cfg.StrictKeys),
	)
	srv := inspect.New(st,
		inspect.WithLogger(logger),
		inspect.WithMetrics(obs.Handler()),
	)
	return srv, st
}

// runServe serves on ln until ctx is done, then shuts down gracefully.
func runServe(ctx context.Context, ln net.Listener, cfg *config.Config, logger *slog.Logger) error {
	srv, _ := newServeHandler(cfg, logger)
	defer srv.Close()

	httpSrv := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()
	logger.Info("inspector started", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("S020").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down inspector")
	// WebSocket handlers block until their clients go away.
	srv.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return errors.New("S020").Wrap(err)
	}
	return nil
}
