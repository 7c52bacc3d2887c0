package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shiftascent/shiftascent/internal/app"
	"github.com/shiftascent/shiftascent/internal/config"
	"github.com/shiftascent/shiftascent/internal/logger"
	"github.com/shiftascent/shiftascent/internal/routes"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	app, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		panic(err)
	}
	defer func() {
		closeErr := app.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	// Expiry sweep runs for the lifetime of the process.
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go app.Sweeper.Run(sweepCtx)

	handler := routes.SetupRoutes(app)
	slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "url", "http://localhost:"+cfg.Port)

	err = http.ListenAndServe(":"+cfg.Port, handler)
	if err != nil {
		slog.Error("server failed", "error", err)
		panic(err)
	}
}
