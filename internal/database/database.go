package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/01moynul/farmers-market-api/internal/config"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// Open creates the process-wide MySQL connection pool from cfg and verifies it
// with a ping bounded by the configured connect timeout. The returned handle is
// meant to be passed to the stores, never stashed in a package variable.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*sql.DB, error) {
	return OpenWithDSN(ctx, cfg.DSN(), cfg.DBMaxOpenConns, cfg.DBConnectTimeout, log)
}

// OpenWithDSN opens and configures a pool for an arbitrary DSN.
func OpenWithDSN(ctx context.Context, dsn string, maxOpen int, connectTimeout time.Duration, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql pool: %w", err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(5 * time.Minute)

	if connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, connectTimeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		log.Error("Failed to connect to the database", zap.Error(err))
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	log.Info("Connected to the database", zap.Int("max_open_conns", maxOpen))
	return db, nil
}
