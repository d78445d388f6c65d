// Command kvs-server runs the ignitedb RPC front-end described in spec §6:
// a TCP listener dispatching GET/SET/RM requests onto a worker pool backed
// by a pluggable storage engine.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iamNilotpal/ignitedb/internal/engine"
	"github.com/iamNilotpal/ignitedb/internal/metrics"
	"github.com/iamNilotpal/ignitedb/internal/pool"
	"github.com/iamNilotpal/ignitedb/internal/server"
	"github.com/iamNilotpal/ignitedb/internal/sled"
	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
	"go.uber.org/zap"
)

func main() {
	var (
		addr        = flag.String("addr", options.DefaultAddr, "TCP address to bind (HOST:PORT)")
		dataDir     = flag.String("data-dir", options.DefaultDataDir, "directory to store data files in")
		engineKind  = flag.String("engine", options.DefaultEngineKind, `storage engine: "kvs" or "sled"`)
		poolKind    = flag.String("pool", options.DefaultPoolKind, `worker pool: "shared" or "naive"`)
		poolSize    = flag.Uint("pool-size", uint(options.DefaultPoolSize), "number of workers in the shared pool")
		metricsAddr = flag.String("metrics-addr", "127.0.0.1:9090", "HTTP address to expose Prometheus metrics on")
	)
	flag.Parse()

	log := logger.New("kvs-server")
	ctx := context.Background()

	opts := options.NewDefaultOptions()
	for _, opt := range []options.OptionFunc{
		options.WithDataDir(*dataDir),
		options.WithAddr(*addr),
		options.WithEngineKind(*engineKind),
		options.WithPoolKind(*poolKind),
		options.WithPoolSize(uint32(*poolSize)),
	} {
		opt(&opts)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	store, closeStore, err := openStore(ctx, &opts, log, m)
	if err != nil {
		log.Fatalw("Failed to open storage engine", "error", err, "engine", opts.EngineKind)
	}
	defer closeStore()

	workers := pool.New(pool.Kind(opts.PoolKind), opts.PoolSize)

	srv, err := server.New(opts.Addr, &server.Config{Logger: log, Store: store, Pool: workers, Metrics: m})
	if err != nil {
		log.Fatalw("Failed to start server", "error", err, "addr", opts.Addr)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: *metricsAddr, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("Metrics server exited with error", "error", err)
		}
	}()
	defer metricsSrv.Close()

	go func() {
		if err := srv.Serve(); err != nil {
			log.Errorw("Server exited with error", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Infow("Shutting down")
	if err := srv.Stop(); err != nil {
		log.Errorw("Error while stopping server", "error", err)
	}
}

// storeCloser wraps whichever engine kind was opened, so main doesn't need
// to know the concrete type to release resources at shutdown.
type storeCloser func() error

func openStore(
	ctx context.Context, opts *options.Options, log *zap.SugaredLogger, m *metrics.Metrics,
) (server.Store, storeCloser, error) {
	switch opts.EngineKind {
	case "sled":
		eng, err := sled.New(ctx, &sled.Config{Options: opts, Logger: log})
		if err != nil {
			return nil, nil, err
		}
		return eng, eng.Close, nil
	default:
		eng, err := engine.New(ctx, &engine.Config{Options: opts, Logger: log, Metrics: m})
		if err != nil {
			return nil, nil, err
		}
		return eng, eng.Close, nil
	}
}
