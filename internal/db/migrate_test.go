package db

import (
	"path/filepath"
	"testing"
	"time"
)

func TestMigrationFilePerDriver(t *testing.T) {
	if got := MigrationFile("migrations", "mysql"); got != filepath.Join("migrations", "001_init.mysql.sql") {
		t.Fatalf("unexpected mysql migration %q", got)
	}
	for _, driver := range []string{"sqlite", "pgx"} {
		if got := MigrationFile("migrations", driver); got != filepath.Join("migrations", "001_init.sql") {
			t.Fatalf("unexpected %s migration %q", driver, got)
		}
	}
}

func TestApplyMigrationIsIdempotent(t *testing.T) {
	sqdb, err := OpenSQLite(filepath.Join(t.TempDir(), "portal.db"), 1, 1, time.Minute)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqdb.Close() })

	path := filepath.Join("..", "..", "migrations", "001_init.sql")
	if err := ApplyMigrationFile(sqdb, path); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := ApplyMigrationFile(sqdb, path); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if _, err := sqdb.Exec(`INSERT INTO settings(name,value,updated_at) VALUES('k','v',?)`, time.Now().UTC()); err != nil {
		t.Fatalf("schema should be usable after re-apply: %v", err)
	}
}
