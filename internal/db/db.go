package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"rtaportal/internal/config"
)

// Open picks the store driver from config. SQLite is the single-node
// default; pgx/mysql DSNs are for deployments that share session state
// across gateway replicas.
func Open(cfg config.Config) (*sql.DB, error) {
	switch cfg.DBDriver {
	case "sqlite", "":
		return OpenSQLite(cfg.DBPath, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
	case "pgx", "mysql":
		d, err := sql.Open(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		d.SetMaxOpenConns(cfg.DBMaxOpenConns)
		d.SetMaxIdleConns(cfg.DBMaxIdleConns)
		d.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
		if err := d.Ping(); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}

func OpenSQLite(path string, maxOpen, maxIdle int, maxLifetime time.Duration) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	d, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	d.SetMaxOpenConns(maxOpen)
	d.SetMaxIdleConns(maxIdle)
	d.SetConnMaxLifetime(maxLifetime)
	if err := d.Ping(); err != nil {
		return nil, err
	}
	return d, nil
}
