package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"herdapi/internal/config"
	"herdapi/internal/db"
	"herdapi/internal/logger"
	"herdapi/internal/resource"
	"herdapi/internal/router"
)

func main() {
	debugFlag := flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	cfg := config.LoadConfig()
	if err := logger.Init("."); err != nil {
		fmt.Fprintf(os.Stderr, "log init failed: %v\n", err)
		os.Exit(1)
	}
	logger.SetDebug(*debugFlag)

	ctx := context.Background()

	// PostgreSQL
	if err := db.InitPostgres(ctx, cfg.PostgresDSN); err != nil {
		logger.Error("postgres_init_failed", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("postgres_connected", nil)

	if cfg.MigrateOnBoot {
		if err := db.RunMigrations(cfg.MigrationsDir, cfg.PostgresDSN); err != nil {
			logger.Error("migrations_failed", logger.Fields{"error": err.Error()})
			os.Exit(1)
		}
		logger.Info("migrations_applied", nil)
	}

	// Redis (optional cache backing)
	if cfg.Redis.Enabled {
		db.InitRedis(cfg.Redis.Addr)
		if err := db.PingRedis(); err != nil {
			logger.Error("redis_init_failed", logger.Fields{"error": err.Error()})
			os.Exit(1)
		}
		logger.Info("redis_connected", nil)
	}

	// Resource descriptors + dependency graph
	if err := resource.InitRegistry(cfg.ResourcesDir); err != nil {
		logger.Error("registry_init_failed", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("resources_initialized", logger.Fields{"count": len(resource.Registry)})

	mux, err := router.InitRoutes(cfg)
	if err != nil {
		logger.Error("router_init_failed", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}

	logger.Info("server_start", logger.Fields{"port": cfg.Port})
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		logger.Error("server_error", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
}
