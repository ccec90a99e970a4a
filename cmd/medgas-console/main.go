package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkayan/medgas"
	"github.com/getkayan/medgas/api"
	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/config"
	"github.com/getkayan/medgas/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logger.InitLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Log.Sync()

	logger.Log.Info("Starting medgas console",
		zap.Int("port", cfg.Port),
		zap.String("api_url", cfg.APIURL),
		zap.String("session_backend", cfg.SessionBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := medgas.NewTelemetry(cfg)
	if err != nil {
		logger.Log.Warn("tracing disabled", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	app, err := medgas.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("failed to initialize", zap.Error(err))
	}
	defer app.Close()

	// Navigation listener: requests that hit the teardown are redirected by
	// the handlers; this records it for the operator.
	go app.Signal.Listen(ctx, func(ev client.Event) {
		logger.Log.Warn("session invalidated, login required",
			zap.String("path", ev.Path),
			zap.Time("at", ev.At),
		)
	})

	if app.Heartbeat != nil {
		app.Heartbeat.Start()
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogMethod:  true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	api.NewHandler(app.Services, app.Guard, app.Health).RegisterRoutes(e)

	go func() {
		logger.Log.Info("Console is listening", zap.Int("port", cfg.Port))
		if err := e.Start(fmt.Sprintf("127.0.0.1:%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("shutdown failed", zap.Error(err))
	}
}
