package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "workbook-generator/internal/adapter/http"
	"workbook-generator/internal/bootstrap"
	"workbook-generator/internal/config"
	"workbook-generator/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := bootstrap.New(cfg, log)
	if err != nil {
		return err
	}
	if err := app.Preflight(ctx); err != nil {
		return err
	}

	srv := fiber.New(fiber.Config{
		AppName:               "workbook-generator",
		BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
	})
	httpadapter.NewHandler(app.Processor, app.Store, log.Named("http")).Register(srv)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("port", cfg.Server.Port), zap.String("converter", app.Converter.Name()))
		errCh <- srv.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down")
		return srv.ShutdownWithTimeout(shutdownTimeout)
	}
}
