package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FL-AZ-EIC/fezwd-backend/internal/config"
	"github.com/FL-AZ-EIC/fezwd-backend/internal/logging"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed"
)

func main() {
	configFile := flag.String("config", "config/config.yaml", "Path to config file")
	flag.Parse()

	// 1. Load configuration
	viper.SetConfigFile(*configFile)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		panic("Failed to read config: " + err.Error())
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		panic("Invalid config: " + err.Error())
	}
	logging.Init(cfg.Logging.Format, logging.ParseLevel(cfg.Logging.Level))

	// 2. Initialize storage
	var db *mongo.Database
	if cfg.Storage.Driver != "memory" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			panic("Failed to connect to Mongo: " + err.Error())
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Error("Mongo disconnect error", "err", err)
			}
		}()

		db = client.Database(cfg.Mongo.DBName)
	}

	// 3. Initialize Gin
	r := gin.Default()

	// 4. Initialize modules
	module := statusfeed.Initialize(db, cfg)
	module.RegisterRoutes(r)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	module.Start(runCtx)

	// 5. Start the server
	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: r,
	}
	go func() {
		slog.Info("Status backend starting", "port", cfg.Server.Port, "driver", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down")

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown error", "err", err)
	}
}
