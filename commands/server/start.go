package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iov-one/grantd/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// AppGenerator lets us lazily initialize app, using the logger and the
// metrics registry built from the runtime configuration.
type AppGenerator func(logger log.Logger, reg prometheus.Registerer, debug bool) (abci.Application, error)

// StartCmd runs the ABCI socket server until the process is interrupted.
// Logs are written to out.
func StartCmd(gen AppGenerator, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the ABCI server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := NewLogger(out, cfg.LogLevel)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)
			go func() {
				select {
				case <-sig:
					cancel()
				case <-ctx.Done():
				}
			}()
			return Start(ctx, cfg, gen, logger.With("module", "grantd"))
		},
	}
	RegisterFlags(cmd.Flags())
	return cmd
}

// Start serves the application until the context is cancelled.
func Start(ctx context.Context, cfg Config, gen AppGenerator, logger log.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())

	app, err := gen(logger, reg, cfg.Debug)
	if err != nil {
		return errors.Wrap(err, "cannot create application")
	}

	logger.Info("Starting ABCI app", "bind", cfg.Bind)
	svr, err := server.NewServer(cfg.Bind, "socket", app)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot create listener: %s", err)
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot start server: %s", err)
	}
	defer svr.Stop()

	if cfg.Metrics != "" {
		metrics := metricsServer(cfg.Metrics, reg)
		go func() {
			logger.Info("Serving metrics", "addr", cfg.Metrics)
			if err := metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metrics.Shutdown(shutdownCtx)
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down")
	return nil
}

func metricsServer(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: mux}
}
