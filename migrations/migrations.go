// Package migrations embeds the goose SQL migrations of the PostgreSQL schema.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS holds the versioned SQL files
//
//go:embed *.sql
var FS embed.FS

// Dialect is the goose dialect the SQL files are written for
const Dialect = "postgres"

func init() {
	goose.SetBaseFS(FS)
}

// Up applies all pending migrations
func Up(db *sql.DB) error {
	if err := goose.SetDialect(Dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.Up(db, ".")
}

// Versions lists the embedded migration versions in order
func Versions() ([]int64, error) {
	found, err := goose.CollectMigrations(".", 0, goose.MaxVersion)
	if err != nil {
		return nil, err
	}
	versions := make([]int64, 0, len(found))
	for _, m := range found {
		versions = append(versions, m.Version)
	}
	return versions, nil
}
