package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// Statements splits the embedded schema into individual statements.
// The schema has no procedures, so a plain split on ';' is safe.
func Statements() []string {
	var out []string
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Migrate creates the farmers, products and users tables if they do not exist.
// Running it against an up-to-date database is a no-op.
func Migrate(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	stmts := Statements()
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	log.Info("Database schema is up to date", zap.Int("statements", len(stmts)))
	return nil
}
