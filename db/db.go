package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"boulangerie/logging"
)

//go:embed schema.sql
var schema string

// DB holds the database connection
var DB *sql.DB

// InitDB opens the PostgreSQL connection and applies the schema
func InitDB(ctx context.Context, dsn string) error {
	var err error
	DB, err = sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, DB); err != nil {
		return err
	}

	logging.L().Infof("✓ Database connection established successfully")
	return nil
}

// Migrate creates the tables if they are missing
func Migrate(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
