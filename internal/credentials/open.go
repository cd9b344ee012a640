package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	pgmigrations "github.com/saurabhpnd/tradeauth/internal/migrations/postgres"
	sqlitemigrations "github.com/saurabhpnd/tradeauth/internal/migrations/sqlite"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Open connects to the credential store described by dsn, runs the goose
// migrations for the matching dialect and returns the database handle
// together with the repository bound to it.
//
// A "postgres://" (or "postgresql://") DSN selects the pgx driver; anything
// else is treated as a SQLite path, which is the deployment the dashboard
// ships with.
func Open(ctx context.Context, dsn string) (*sql.DB, Repository, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("db open error: %w", err)
		}
		if err := runMigrations(ctx, db, "postgres"); err != nil {
			return nil, nil, fmt.Errorf("migration error: %w", err)
		}
		return db, NewPostgresRepository(db), nil
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if err := runMigrations(ctx, db, "sqlite3"); err != nil {
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}
	return db, NewSQLiteRepository(db), nil
}

func runMigrations(ctx context.Context, db *sql.DB, dialect string) error {
	if dialect == "postgres" {
		goose.SetBaseFS(pgmigrations.Migrations)
	} else {
		goose.SetBaseFS(sqlitemigrations.Migrations)
	}

	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
