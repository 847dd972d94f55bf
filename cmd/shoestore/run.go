package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	promadapter "github.com/codewandler/mbus-go/adapters/prometheus"
	"github.com/codewandler/mbus-go/internal/shop"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	MetricsAddr string
	Speed       int
}

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts, Speed: -1}

	cmd := &cobra.Command{
		Use:   "run <simulation-file>",
		Short: "Run a simulation and print the final store report",
		Long: `Run a shoe store simulation described by a JSON or YAML file.

The clock ticks until the configured duration has passed. Afterwards the
remaining stock and all receipts are printed.

Example:
  shoestore run ./simulation.json
  shoestore run --speed 0 --format json ./simulation.yaml
  shoestore run --metrics-addr :9090 -v ./simulation.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")
	cmd.Flags().IntVar(&opts.Speed, "speed", -1, "override the tick length in milliseconds")

	return cmd
}

func runSimulation(cmd *cobra.Command, opts *RunOptions, path string) error {
	log := opts.logger(cmd.ErrOrStderr())

	sim, err := shop.LoadFile(path)
	if err != nil {
		return err
	}
	if opts.Speed >= 0 {
		sim.Services.Time.Speed = opts.Speed
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOpts := shop.Options{Logger: log}
	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		m := promadapter.NewAllMetrics(reg)
		runOpts.BusMetrics, runOpts.ActorMetrics = m.Bus, m.Actor

		shutdown, err := serveMetrics(log, opts.MetricsAddr, reg)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	st, err := shop.Run(ctx, sim, runOpts)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return st.WriteJSON(cmd.OutOrStdout())
	}
	return st.WriteReport(cmd.OutOrStdout())
}

func serveMetrics(log *slog.Logger, addr string, g prometheus.Gatherer) (func(), error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("metrics server starting", slog.String("addr", l.Addr().String()))
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", slog.Any("error", err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
