package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluxorio/todo-service/internal/app"
	"github.com/fluxorio/todo-service/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to a yaml, toml or json config file (TODO_* env vars override it)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Errorf("failed to create app: %v", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Start()
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-stop:
		logger.Infof("received %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Errorf("server error: %v", err)
			exitCode = 1
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+5*time.Second)
	defer shutdownCancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
		exitCode = 1
	}

	logger.Info("stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
