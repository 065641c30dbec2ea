package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/config"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	maxOpenConns    = 60
	connMaxLifetime = 120 * time.Second
	maxIdleConns    = 30
	connMaxIdleTime = 20 * time.Second
)

// NewDB opens the video database for the configured driver. The sqlite
// driver serialises writers through a single connection.
func NewDB(c *config.Config) (*sqlx.DB, error) {
	switch c.Database.Driver {
	case "sqlite":
		return newSqliteDB(c)
	case "pgx", "":
		return newPsqlDB(c)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
}

func newPsqlDB(c *config.Config) (*sqlx.DB, error) {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	dataSourceName := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s password=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Name,
		sslMode,
		c.Database.Password,
	)
	db, err := sqlx.Connect("pgx", dataSourceName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping postgres")
	}
	return db, nil
}

func newSqliteDB(c *config.Config) (*sqlx.DB, error) {
	path := c.Database.Path
	if path == "" {
		path = filepath.Join(c.Transcode.StorageRoot, "videos.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}
	db, err := sqlx.Connect("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
