// Package main provides the entry point for bradis-server.
//
// bradis-server is a single-node in-memory key-value server speaking the
// RESP protocol.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/braddunbar/bradis/internal/infra/buildinfo"
	"github.com/braddunbar/bradis/internal/infra/confloader"
	"github.com/braddunbar/bradis/internal/infra/shutdown"
	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/internal/server/config"
	"github.com/braddunbar/bradis/internal/server/httpserver"
	"github.com/braddunbar/bradis/internal/server/respserver"
	"github.com/braddunbar/bradis/internal/storage"
	"github.com/braddunbar/bradis/internal/telemetry/logger"
	"github.com/braddunbar/bradis/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("bradis-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})

	// The run id distinguishes this process in logs and metrics.
	runID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.New(rand.NewSource(time.Now().UnixNano()))).String()
	log.Info("starting bradis-server",
		"version", buildinfo.Version(),
		"run_id", runID,
		"config", *configFile)

	metrics := metric.New(runID)

	readerCfg := resp.NewReaderConfig()
	readerCfg.SetBlobLimit(cfg.Limits.ProtoMaxBulkLen)
	readerCfg.SetInlineLimit(cfg.Limits.ProtoInlineMaxSize)

	store := storage.New(cfg.StoreLimits(), readerCfg, log, metrics)
	storeCtx, stopStore := context.WithCancel(context.Background())
	go store.Run(storeCtx)

	respCfg, err := respConfig(cfg)
	if err != nil {
		return err
	}
	server := respserver.New(respCfg, store, log)
	if err := server.Start(storeCtx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	// Shutdown in reverse order of startup.
	shutdownHandler.OnShutdown(func(context.Context) error {
		stopStore()
		return nil
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down resp server")
		return server.Shutdown(ctx)
	})

	if cfg.Server.HTTPAddr != "" {
		httpServer := httpserver.New(cfg.Server.HTTPAddr, metrics)
		go func() {
			log.Info("http server listening", "addr", cfg.Server.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("http server error", "error", err)
			}
		}()
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down http server")
			return httpServer.Shutdown(ctx)
		})
	}

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, store, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// respConfig converts the config sections into the server's settings.
func respConfig(cfg *config.ServerConfig) (*respserver.Config, error) {
	out := &respserver.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		RateLimit:    cfg.Server.RateLimit,
	}
	if cfg.Server.TLSAddr != "" {
		cert, err := tls.LoadX509KeyPair(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load TLS keypair: %w", err)
		}
		out.TLSEnabled = true
		out.TLSAddr = cfg.Server.TLSAddr
		out.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	}
	return out, nil
}

// watchConfig reloads the file on change, reapplying the log level and the
// store's runtime limits.
func watchConfig(path string, store *storage.Store, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(log)
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		return nil, err
	}

	watcher.OnChange(func(string) {
		next, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		logger.SetLevel(next.Log.Level)
		store.Apply(func(s *storage.Store) {
			s.SetLimits(next.StoreLimits())
		})
		log.Info("configuration reloaded", "path", path)
	})
	watcher.StartAsync()
	return watcher, nil
}
