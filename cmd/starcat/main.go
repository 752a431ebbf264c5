package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/starcat-lab/starcat/internal/catalog"
	corecfg "github.com/starcat-lab/starcat/internal/core/config"
	"github.com/starcat-lab/starcat/internal/metadata"
	"github.com/starcat-lab/starcat/internal/migrations"
	"github.com/starcat-lab/starcat/internal/query"
	"github.com/starcat-lab/starcat/internal/server"
	"github.com/starcat-lab/starcat/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", "starcat.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	// 2. Initialize the catalog loader: PostgreSQL store or manifest directory.
	var (
		loader catalog.Loader
		db     *sql.DB
	)
	if cfg.Database.Enabled {
		adapter, err := postgres.NewAdapter(
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
		)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer adapter.Close()

		if err := migrations.RunMigrations(adapter.DB(), cfg.Database.AutoMigrate); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}

		loader = adapter
		db = adapter.DB()
	} else {
		loader = metadata.NewDirLoader(cfg.Catalog.ManifestDir)
		slog.Info("Using manifest catalog loader", "dir", cfg.Catalog.ManifestDir)
	}

	// 3. Initialize the registry and query API. No geometry providers are
	// wired in-process; cone/box/polygon filtering and margin computation
	// report themselves unavailable until one is configured.
	registry := catalog.NewRegistryWithCache(loader, catalog.NewLRUCache(cfg.Catalog.CacheCapacity))
	querySvc := query.NewService(registry, nil, nil,
		cfg.Catalog.MaxQueryOrder, cfg.Catalog.DefaultMarginThresholdArcsec)

	// 4. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), db, cfg.Server.Mode)
	querySvc.RegisterRoutes(srv.Engine)

	// 5. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
