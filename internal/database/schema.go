package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"gorm.io/gorm"

	"thrift/internal/config"
)

// ApplySchema auto-migrates every persistent model.
func ApplySchema(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SchemaStatus reports which persistent tables exist.
type SchemaStatus struct {
	Present []string
	Missing []string
}

// GetSchemaStatus inspects the database for each persistent model's table.
func GetSchemaStatus(ctx context.Context, db *gorm.DB) (SchemaStatus, error) {
	var status SchemaStatus
	migrator := db.WithContext(ctx).Migrator()
	for _, m := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return status, fmt.Errorf("failed to parse model: %w", err)
		}
		name := stmt.Schema.Table
		if migrator.HasTable(m) {
			status.Present = append(status.Present, name)
		} else {
			status.Missing = append(status.Missing, name)
		}
	}
	return status, nil
}

// EnsureDatabase creates the configured Postgres database if it does not
// exist, using the maintenance "postgres" database. It is a no-op for SQLite.
func EnsureDatabase(ctx context.Context, cfg *config.Config) (created bool, err error) {
	if cfg.DBDriver != "postgres" {
		return false, nil
	}

	sqlDB, err := sql.Open("pgx", PostgresDSN(cfg, "postgres"))
	if err != nil {
		return false, fmt.Errorf("open maintenance db: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	var exists bool
	if err := sqlDB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, cfg.DBName,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check database: %w", err)
	}
	if exists {
		return false, nil
	}

	// Identifiers cannot be bound as parameters.
	if _, err := sqlDB.ExecContext(ctx, `CREATE DATABASE `+quoteIdent(cfg.DBName)); err != nil {
		return false, fmt.Errorf("create database: %w", err)
	}
	return true, nil
}

func quoteIdent(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, s[i])
	}
	return string(append(out, '"'))
}
