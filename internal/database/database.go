package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/marque/internal/config"
	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/models"
)

// Manager owns exactly one engine and connection pool per market. Handles are
// created once at startup; a missing or unreachable market database is fatal
// there, never mid-request.
type Manager struct {
	dbs map[market.Market]*gorm.DB
	log *zap.Logger
}

// NewManager connects to every market's database and runs migrations.
func NewManager(cfg *config.Config, log *zap.Logger) (*Manager, error) {
	urls := map[market.Market]string{
		market.KG: cfg.DatabaseURLKG,
		market.US: cfg.DatabaseURLUS,
	}

	m := &Manager{dbs: make(map[market.Market]*gorm.DB, len(urls)), log: log}
	for _, mkt := range market.All() {
		dsn := urls[mkt]
		if dsn == "" {
			return nil, fmt.Errorf("missing database url for market %s", mkt)
		}
		db, err := open(dsn, cfg)
		if err != nil {
			return nil, fmt.Errorf("market %s: %w", mkt, err)
		}
		m.dbs[mkt] = db
		log.Info("connected market database", zap.String("market", string(mkt)))
	}
	return m, nil
}

// NewWithConnections builds a Manager from pre-opened handles. Used by tests
// to route markets to isolated in-memory databases.
func NewWithConnections(dbs map[market.Market]*gorm.DB) *Manager {
	return &Manager{dbs: dbs, log: zap.NewNop()}
}

// Session returns the gorm handle bound to the market's own pool. Sessions
// derived from it never touch another market's storage.
func (m *Manager) Session(mkt market.Market) *gorm.DB {
	return m.dbs[mkt]
}

// Close releases every market's connection pool.
func (m *Manager) Close() error {
	var firstErr error
	for mkt, db := range m.dbs {
		sqlDB, err := db.DB()
		if err != nil {
			continue
		}
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing market %s: %w", mkt, err)
		}
	}
	return firstErr
}

func open(dsn string, cfg *config.Config) (*gorm.DB, error) {
	if err := ensureDatabase(dsn); err != nil {
		return nil, fmt.Errorf("failed to ensure database: %w", err)
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}

	// Base pool plus bounded overflow; recycled connections avoid the
	// "server closed the connection" failures under long-lived load.
	sqlDB.SetMaxOpenConns(cfg.DBPoolSize + cfg.DBPoolOverflow)
	sqlDB.SetMaxIdleConns(cfg.DBPoolSize)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return conn, nil
}

// Migrate applies the shared model set. Every market's database carries the
// same schema; rows differ only in their market tag and field usage.
func Migrate(conn *gorm.DB) error {
	migrations := []interface{}{
		&models.User{},
		&models.PhoneVerification{},
		&models.UserAddress{},
		&models.UserPaymentMethod{},
		&models.Admin{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	}

	for _, migration := range migrations {
		if err := conn.AutoMigrate(migration); err != nil {
			return err
		}
	}

	return nil
}

func ensureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	masterDSN := parsed.String()

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
