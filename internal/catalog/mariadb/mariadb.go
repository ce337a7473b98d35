// Package mariadb implements the catalog on MariaDB/MySQL.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kozaktomas/finder/internal/catalog"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool. parseTime is always
// enabled so DATETIME columns scan into time.Time.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MariaDB DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}
	db := sql.OpenDB(connector)

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Migrate creates the items table when missing.
func (p *Pool) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS items (
			seq               BIGINT AUTO_INCREMENT PRIMARY KEY,
			id                VARCHAR(64) NOT NULL UNIQUE,
			description       VARCHAR(255) NOT NULL,
			item_date         VARCHAR(10) NOT NULL,
			category          VARCHAR(100) NOT NULL,
			image_url         TEXT NOT NULL,
			user_id           VARCHAR(128) NOT NULL DEFAULT '',
			latitude          DOUBLE NOT NULL DEFAULT 0,
			longitude         DOUBLE NOT NULL DEFAULT 0,
			located_at        DATETIME(6) NULL,
			descriptors       LONGTEXT NOT NULL,
			descriptor_length INT NOT NULL DEFAULT 0,
			created_at        DATETIME(6) NOT NULL,
			INDEX idx_items_category (category)
		) CHARACTER SET utf8mb4
	`)
	if err != nil {
		return fmt.Errorf("create items table: %w", err)
	}
	return nil
}

// Initialize connects, creates the schema and registers MariaDB as the
// active catalog backend. The returned pool must be closed by the caller.
func Initialize(dsn string) (*Pool, error) {
	pool, err := NewPool(dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	repo := NewItemRepository(pool)
	catalog.RegisterBackend(catalog.BackendMariaDB, func() catalog.Writer { return repo })
	return pool, nil
}
