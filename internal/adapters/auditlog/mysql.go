package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = dialect{
	driver: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS submission_log (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			request_id VARCHAR(64) NOT NULL DEFAULT '',
			level VARCHAR(16) NOT NULL,
			message VARCHAR(512) NOT NULL,
			data TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			INDEX idx_submission_log_created_at (created_at)
		)`,
	},
}

// NewMySQLSink creates a sink backed by a MySQL database
func NewMySQLSink(dsn string, logger *zap.Logger, opts Options) (*SQLSink, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	return newSQLSink(db, mysqlDialect, logger, opts)
}
