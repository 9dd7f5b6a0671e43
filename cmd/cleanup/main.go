// Command cleanup purges expired unused verification codes from every
// market's database. Meant to run out-of-band, e.g. from cron.
package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/example/marque/internal/config"
	"github.com/example/marque/internal/database"
	"github.com/example/marque/internal/logger"
	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/store"
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

	for _, mkt := range market.All() {
		removed, err := store.Verifications(mkt).CleanupExpired(dbm.Session(mkt))
		if err != nil {
			zlog.Error("cleanup failed", zap.String("market", string(mkt)), zap.Error(err))
			continue
		}
		zlog.Info("removed expired verification codes",
			zap.String("market", string(mkt)), zap.Int64("count", removed))
	}
}
