package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zeusync/warehouse/internal/core/metrics"
	"github.com/zeusync/warehouse/internal/core/observability/log"
	"github.com/zeusync/warehouse/internal/core/world"
	"github.com/zeusync/warehouse/internal/injector"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML world config")
		duration    = flag.Duration("duration", 10*time.Second, "how long to run, 0 runs until interrupted")
		entities    = flag.Int("entities", 1000, "number of entities to spawn")
		readers     = flag.Int("readers", 4, "number of render goroutines")
		writers     = flag.Int("writers", 1, "number of input goroutines")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	)
	flag.Parse()

	if err := run(*configPath, *duration, *metricsAddr, workload{
		entities: *entities,
		readers:  *readers,
		writers:  *writers,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "warehouse-demo:", err)
		os.Exit(1)
	}
}

func run(configPath string, duration time.Duration, metricsAddr string, wl workload) error {
	config := world.DefaultConfig()
	if configPath != "" {
		var err error
		if config, err = world.LoadConfig(configPath); err != nil {
			return err
		}
	}

	w, err := injector.InitializeWorld(config)
	if err != nil {
		return err
	}
	logger := w.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, metrics.NewCollector(config.MetricsNamespace, w), logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	counts, err := wl.run(ctx, w)
	if err != nil {
		return err
	}

	logger.Info("demo finished",
		log.Uint64("frames", counts.frames.Load()),
		log.Uint64("sprites_drawn", counts.drawn.Load()),
		log.Uint64("updates", counts.updates.Load()),
		log.Uint64("respawns", counts.respawns.Load()),
		log.Int("entities", w.EntityCount()),
	)
	logStats(logger, w)
	return nil
}

func serveMetrics(addr string, collector prometheus.Collector, logger log.Log) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collector)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", log.Error(err))
		}
	}()
	logger.Info("serving metrics", log.String("addr", addr))
	return srv
}

func logStats(logger log.Log, w *world.World) {
	for _, s := range w.Stats() {
		logger.Info("storage stats",
			log.String("component", s.Name),
			log.Stringer("component_id", s.ComponentID),
			log.Uint64("capacity", s.Capacity),
			log.Int("occupied", s.Occupied),
			log.Uint64("reads", s.Access.Reads),
			log.Uint64("writes", s.Access.Writes),
			log.Uint64("contended_reads", s.Access.ContendedReads),
			log.Uint64("contended_writes", s.Access.ContendedWrites),
			log.Duration("read_wait", s.Access.ReadWait),
			log.Duration("write_wait", s.Access.WriteWait),
		)
	}
}
