package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sysboard/sysboard/internal/config"
	"github.com/sysboard/sysboard/internal/gpu"
	"github.com/sysboard/sysboard/internal/history"
	"github.com/sysboard/sysboard/internal/logger"
	"github.com/sysboard/sysboard/internal/metrics"
	"github.com/sysboard/sysboard/internal/monitor"
	"github.com/sysboard/sysboard/internal/pid"
	"github.com/sysboard/sysboard/internal/schedule"
	"github.com/sysboard/sysboard/internal/server"
	"github.com/sysboard/sysboard/internal/stream"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write pidfile")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove pidfile")
		}
	}()

	backend := gpu.Probe()
	defer backend.Close()

	recorder, err := history.NewRecorder(history.Config{
		Enabled: cfg.History,
		DBPath:  cfg.HistoryDB,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize history")
	}
	defer recorder.Close()

	// Samplers in fixed broadcast order.
	samplers := []metrics.Sampler{
		metrics.NewCPUSampler(cfg.MaxCores),
		metrics.NewMemorySampler(),
		metrics.NewDiskSampler(),
		metrics.NewNetworkSampler(),
		metrics.NewProcessSampler(cfg.TopN),
		gpu.NewSampler(backend),
		metrics.NewTemperatureSampler(),
	}

	policy := schedule.NewPolicy(cfg.Intervals)
	hub := stream.NewHub(cfg.QueueSize)
	loop := monitor.New(policy, hub, samplers, recorder)
	static := metrics.NewStaticProvider()
	srv := server.New(hub, policy, loop, static, recorder,
		time.Duration(cfg.Heartbeat)*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	go loop.Run(ctx)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("listen", cfg.Listen).Msg("sysboard serving")
		serveErr <- srv.Start(cfg.Listen)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error().Err(err).Msg("server failed")
		}
		cancel()
	}

	shutdown(srv, hub, time.Duration(cfg.Grace)*time.Second)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// shutdown notifies every subscriber first, lets them drain the sentinel for
// the grace period, then tears the listener down.
func shutdown(srv *server.Server, hub *stream.Hub, grace time.Duration) {
	hub.Shutdown(grace)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	logger.Info().Msg("Exiting...")
}
