package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MigrationFile returns the schema file for the driver. MySQL carries its
// own DDL: no CREATE INDEX IF NOT EXISTS, length-limited key columns.
func MigrationFile(dir, driver string) string {
	if driver == "mysql" {
		return filepath.Join(dir, "001_init.mysql.sql")
	}
	return filepath.Join(dir, "001_init.sql")
}

func ApplyMigrationFile(db *sql.DB, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	return ApplyMigration(db, string(b))
}

// ApplyMigration executes the script one statement at a time; the MySQL
// driver refuses multi-statement Exec unless the DSN opts in.
func ApplyMigration(db *sql.DB, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil && !isDuplicateErr(err) {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

func isDuplicateErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate column") || strings.Contains(msg, "already exists")
}
