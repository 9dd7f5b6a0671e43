// Command createadmin seeds a back-office account in both market databases.
package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/example/marque/internal/config"
	"github.com/example/marque/internal/database"
	"github.com/example/marque/internal/logger"
	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/models"
	"github.com/example/marque/internal/utils"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "", "admin password (required)")
	flag.Parse()

	if *password == "" {
		log.Fatal("password is required")
	}

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

	hash, err := utils.HashPassword(*password)
	if err != nil {
		zlog.Fatal("failed to hash password", zap.Error(err))
	}

	for _, mkt := range market.All() {
		admin := models.Admin{
			Username:     *username,
			PasswordHash: hash,
			Market:       string(mkt),
			IsActive:     true,
		}
		if err := dbm.Session(mkt).Create(&admin).Error; err != nil {
			zlog.Error("failed to create admin",
				zap.String("market", string(mkt)), zap.Error(err))
			continue
		}
		zlog.Info("admin created",
			zap.String("market", string(mkt)), zap.String("username", *username))
	}
}
