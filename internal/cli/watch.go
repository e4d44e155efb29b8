package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/useradmin/internal/state"
)

const metricsShutdownTimeout = 5 * time.Second

func newWatchCommand() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the current page and redraw it whenever users change",
		Long: `watch subscribes to the server's change feed and reloads the current page
after every create, update or delete made by any client. Stop it with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var opts []state.Option
			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				opts = append(opts, state.WithMetrics(state.NewMetrics(reg)))
				stop := serveMetrics(metricsAddr, reg, sess.logger)
				defer stop()
			}

			return runWatch(ctx, cmd, sess, sess.newStore(opts...))
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve client metrics on this address, e.g. :9091")

	return cmd
}

// runWatch renders the page once, then again after every settled reload
// triggered by the change feed.
func runWatch(ctx context.Context, cmd *cobra.Command, sess *session, store *state.Store) error {
	out := cmd.OutOrStdout()

	changes, cancel := store.Subscribe()
	defer cancel()

	_ = store.Load(ctx)
	if err := renderSnapshot(out, store.Snapshot(), sess.json); err != nil {
		return err
	}
	select {
	case <-changes:
	default:
	}

	followErr := make(chan error, 1)
	go func() {
		followErr <- store.Follow(ctx, sess.client)
	}()

	drawn := 0
	for {
		select {
		case <-changes:
			snap := store.Snapshot()
			if snap.Loading {
				continue
			}
			drawn++
			if !sess.json {
				_, _ = fmt.Fprintf(out, "\n-- update %d at %s --\n", drawn, time.Now().Format(time.TimeOnly))
			}
			if err := renderSnapshot(out, snap, sess.json); err != nil {
				return err
			}
		case err := <-followErr:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// serveMetrics exposes reg on addr until the returned func is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving client metrics", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
