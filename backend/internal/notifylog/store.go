package notifylog

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"follownet/backend/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// Store provides sqlite-backed persistence for the notification log. The
// log is owned exclusively by this store; it is never joined into a graph
// transaction.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates a notification log store at the given path. It configures
// WAL mode, sets pragmas, and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.Get(),
	}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}
