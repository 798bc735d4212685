package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/law52525/StardewSeedSearcher/internal/config"
	"github.com/law52525/StardewSeedSearcher/internal/searcher"
	"github.com/law52525/StardewSeedSearcher/internal/server"
	"github.com/law52525/StardewSeedSearcher/pkg/search/factory"
)

var (
	port       = flag.Int("port", 0, "HTTP port (overrides config)")
	engineName = flag.String("engine", "", "preferred search engine: batch or workers (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadServerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *engineName != "" {
		cfg.Engine = *engineName
	}

	log, err := buildLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	factoryConfig := factory.DefaultConfig()
	if cfg.Engine != "" {
		factoryConfig.PreferredOrder = []string{cfg.Engine, "workers"}
	}

	f := factory.New(factoryConfig, log)
	if err := f.InitializeAll(); err != nil {
		log.Fatal("initialize engines", zap.Error(err))
	}
	defer f.ShutdownAll()

	hub := server.NewHub(log)
	driver := searcher.New(f, hub, log)
	srv := server.New(driver, f, hub, log)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Router(),
	}

	go func() {
		log.Info("server listening",
			zap.Int("port", cfg.Port),
			zap.String("websocket", fmt.Sprintf("ws://localhost:%d/ws", cfg.Port)))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func buildLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
