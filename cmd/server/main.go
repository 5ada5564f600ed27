// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/opd-ai/go-stellar/pkg/config"
	"github.com/opd-ai/go-stellar/pkg/health"
	"github.com/opd-ai/go-stellar/pkg/logging"
	"github.com/opd-ai/go-stellar/pkg/metrics"
	"github.com/opd-ai/go-stellar/pkg/network"
	"github.com/opd-ai/go-stellar/pkg/registry"
	"github.com/opd-ai/go-stellar/pkg/scheduler"
	"github.com/opd-ai/go-stellar/pkg/store"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	// A .env file is optional; real deployments set the environment
	// directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Error(ctx, "Failed to load .env file", err)
		os.Exit(1)
	}

	envConfig, err := config.LoadConfigFromEnv()
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"message", "Set STELLAR_JWT_SECRET and related environment variables",
		)
		os.Exit(1)
	}

	st, err := store.Open(envConfig.DatabasePath)
	if err != nil {
		logger.Error(ctx, "Failed to open game store", err,
			"database_path", envConfig.DatabasePath,
		)
		os.Exit(1)
	}
	defer st.Close()

	m := metrics.New()
	reg := registry.New(st, nil, logger, m)
	sched := scheduler.New(reg, st, m, envConfig)

	healthChecker := health.NewHealthChecker()
	healthChecker.AddCheck(health.NewStoreHealthCheck(st.Ping))
	healthChecker.AddCheck(health.NewSchedulerHealthCheck(sched.Running))
	healthChecker.AddCheck(health.NewMemoryHealthCheck(500, func() int64 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return int64(ms.Alloc / 1024 / 1024)
	}))

	server := network.NewServer(reg, st, m, healthChecker, envConfig)

	schedCtx, stopScheduler := context.WithCancel(ctx)
	go sched.Run(schedCtx)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Server failed", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info(ctx, "Shutting down server")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), envConfig.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown failed", err)
	}
}
