package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/marque/internal/config"
	"github.com/example/marque/internal/database"
	"github.com/example/marque/internal/logger"
	"github.com/example/marque/internal/routes"
	"github.com/example/marque/internal/services"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	dbm, err := database.NewManager(cfg, zlog)
	if err != nil {
		zlog.Fatal("database initialization failed", zap.Error(err))
	}
	defer dbm.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		zlog.Info("using redis-backed rate limiting", zap.String("addr", cfg.RedisAddr))
	} else {
		zlog.Warn("redis not configured, rate limits are per-process only")
	}
	limiter := services.NewLimiter(rdb, cfg.MaxSendAttempts, cfg.SendAttemptWindow)

	sms := services.NewSMSService(cfg.SMSAPIKey, cfg.SMSServiceURL, zlog)
	authSvc := services.NewAuthService(dbm, cfg, sms, limiter, zlog)

	app := fiber.New(fiber.Config{
		AppName: "Marque Backend",
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	routes.Register(app, dbm, cfg, authSvc)

	zlog.Info("starting server", zap.String("port", cfg.AppPort))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		zlog.Fatal("fiber.Listen error", zap.Error(err))
	}
}
