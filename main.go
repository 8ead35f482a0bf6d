package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/fragisir/automatic-resturent-system/config"
	"github.com/fragisir/automatic-resturent-system/database"
	"github.com/fragisir/automatic-resturent-system/kds"
	"github.com/fragisir/automatic-resturent-system/router"
	"github.com/fragisir/automatic-resturent-system/services"
	"github.com/fragisir/automatic-resturent-system/tokens"
	"github.com/fragisir/automatic-resturent-system/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel)

	if cfg.GinMode == gin.ReleaseMode || cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}
	if !cfg.IsProduction() {
		if err := database.SeedMenu(db); err != nil {
			utils.ErrorLogger.Printf("Error seeding menu: %v", err)
		}
	}

	codec, err := tokens.NewCodec(cfg.SessionTokenSecret)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to create token codec: %v", err)
	}

	hub := kds.NewHub(cfg.EventBuffer)
	go hub.Run()

	var bridge *kds.RedisBridge
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		bridge = kds.NewRedisBridge(client, cfg.RedisChannel, hub, cfg.EventBuffer)
		if err := bridge.Start(context.Background()); err != nil {
			utils.ErrorLogger.Printf("Redis relay disabled: %v", err)
			bridge = nil
			client.Close()
		} else {
			defer client.Close()
		}
	}

	orchestrator := services.NewOrchestrator(db, codec, hub, services.Options{
		SessionTTL:   cfg.SessionTTL,
		StoreTimeout: cfg.StoreTimeout,
		TableCount:   cfg.TableCount,
	})

	reaper, err := services.NewSessionReaper(orchestrator, cfg.ReaperInterval)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to create session reaper: %v", err)
	}
	if err := reaper.Start(); err != nil {
		utils.ErrorLogger.Fatalf("Failed to start session reaper: %v", err)
	}

	r := router.SetupRouter(router.Dependencies{
		Config:       cfg,
		Orchestrator: orchestrator,
		Hub:          hub,
		AdminTokens:  utils.NewAdminTokens(cfg.AdminTokenSecret, cfg.AdminTokenTTL),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.InfoLogger.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
	if err := reaper.Stop(); err != nil {
		utils.ErrorLogger.Printf("Session reaper shutdown: %v", err)
	}
	if bridge != nil {
		bridge.Close()
	}
	hub.Stop()
	hub.Wait()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	utils.InfoLogger.Println("Server stopped")
}
