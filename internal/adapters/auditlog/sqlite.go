package auditlog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	driver: "sqlite3",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS submission_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL DEFAULT '',
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submission_log_created_at ON submission_log(created_at)`,
	},
}

// NewSQLiteSink creates a sink backed by a SQLite database file
func NewSQLiteSink(dbPath string, logger *zap.Logger, opts Options) (*SQLSink, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	return newSQLSink(db, sqliteDialect, logger, opts)
}
