package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrMissingURL   = errors.New("DATABASE_URL environment variable not set")
	ErrUnknownTable = errors.New("table not found in database")
)

type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	SampleRows      int
	MaxRows         int
}

func Open(ctx context.Context, cfg Config) (*Handle, error) {
	target, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	db, err := OpenDB(ctx, target, cfg)
	if err != nil {
		return nil, err
	}
	return NewHandle(db, target.Dialect, HandleOptions{SampleRows: cfg.SampleRows, MaxRows: cfg.MaxRows}), nil
}

// OpenDB opens and pings the pool for target without wrapping it in a Handle.
func OpenDB(ctx context.Context, target Target, cfg Config) (*sql.DB, error) {
	db, err := sql.Open(target.Driver, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", target.Dialect, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	// Every sqlite :memory: connection is a separate database.
	if target.Dialect == DialectSQLite && target.Memory {
		db.SetMaxOpenConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", target.Dialect, err)
	}

	return db, nil
}
