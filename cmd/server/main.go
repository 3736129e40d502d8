package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/fribble186/todos/internal/config"
	"github.com/fribble186/todos/internal/serverapp"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "todos.yaml", "path to yaml config")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatal().Err(err).Str("path", *configPath).Msg("load config")
		}
		cfg = config.Default()
	}
	cfg.FromEnv()

	app, err := serverapp.New(serverapp.Options{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build server")
	}
	defer func() { _ = app.Close() }()

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: app.Handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("serve")
	}
	logger.Info().Msg("server stopped")
}
