package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/DevenGibbs/starter-restaurant-reservation/config"
	"github.com/DevenGibbs/starter-restaurant-reservation/controllers"
	"github.com/DevenGibbs/starter-restaurant-reservation/hub"
	"github.com/DevenGibbs/starter-restaurant-reservation/router"
	"github.com/DevenGibbs/starter-restaurant-reservation/utils"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.SetLogLevel(cfg.LogLevel)
	utils.ConfigureJWT(cfg.Auth.JWTSecret, cfg.TokenTTL())

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := config.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		if err := controllers.EnsureAdmin(db, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			utils.ErrorLogger.Fatalf("Failed to seed admin: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	floor := hub.New()
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := floor.UseRedis(ctx, rdb, cfg.Redis.Channel); err != nil {
			utils.ErrorLogger.Errorf("Redis bridge disabled: %v", err)
		}
	}

	r, err := router.SetupRouter(db, cfg, floor)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to set up router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("Forced shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
