package database

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(connStr string) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	if err := seedLicenses(db); err != nil {
		return fmt.Errorf("seed licenses: %w", err)
	}
	return nil
}

func seedLicenses(db *sql.DB) error {
	for _, l := range ccLicenses {
		_, err := db.Exec(`
			INSERT INTO licenses (name, short_name, url, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (short_name) DO UPDATE
			SET name = EXCLUDED.name, url = EXCLUDED.url, description = EXCLUDED.description`,
			l.name, l.shortName, l.url, l.description,
		)
		if err != nil {
			return fmt.Errorf("upsert license %q: %w", l.shortName, err)
		}
	}
	return nil
}
