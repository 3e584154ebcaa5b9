// Package main provides the workflow version registry server entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang/glog"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/flowsage/workflow-registry/pkg/versioning"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Optional path to a config file (yaml)")
	flag.Parse()

	// Initialize glog for backwards compatibility
	_ = flag.Set("logtostderr", "true")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	v := viper.New()
	v.SetDefault("listen", ":8080")
	v.SetDefault("db.type", "sqlite")
	v.SetDefault("db.dsn", "registry.db")
	v.SetDefault("engine.url", "")
	v.SetEnvPrefix("REGISTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			glog.Fatalf("Failed to read config file %s: %v", configPath, err)
		}
	}

	listenAddr := v.GetString("listen")
	dbType := v.GetString("db.type")
	dbDSN := v.GetString("db.dsn")
	engineURL := v.GetString("engine.url")

	logger.Info("starting workflow registry server",
		"listen", listenAddr,
		"dbType", dbType,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gormDB, err := setupDatabase(dbType, dbDSN)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	var engine versioning.ExecutionEngine = versioning.NoopEngine{}
	if engineURL != "" {
		engine = newHTTPEngine(engineURL)
		logger.Info("using remote execution engine", "url", engineURL)
	} else {
		logger.Info("no execution engine configured, using noop engine")
	}

	svc := versioning.NewService(gormDB, engine, versioning.ConfigFromEnv(), logger)
	if err := svc.AutoMigrate(); err != nil {
		glog.Fatalf("Failed to migrate database schema: %v", err)
	}

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	router.Mount("/api/workflows/v1alpha1", versioning.NewRouter(svc))

	// Periodic audit retention sweep.
	go versioning.NewRetentionSweeper(svc, 24*time.Hour).Run(ctx)

	logger.Info("workflow registry server ready", "listen", listenAddr)

	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// setupDatabase opens a gorm connection for the configured dialect.
func setupDatabase(dbType, dsn string) (*gorm.DB, error) {
	switch dbType {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database type %q (expected postgres, mysql, or sqlite)", dbType)
	}
}
