package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB implementation of Store[S].
//
// It stores pipeline state and checkpoints in a relational database.
// Designed for:
//   - Shared lab deployments where several workers analyze connectome
//     datasets against one database
//   - Long-running analyses that must survive process restarts
//   - Audit trails over past runs
//
// MySQLStore uses connection pooling and transactions for reliability.
//
// Schema:
//   - pipeline_steps: Step-by-step execution history
//   - pipeline_checkpoints: Named checkpoints for resumption
//
// Type parameter S is the state type to persist (must be JSON-serializable).
type MySQLStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore creates a new MySQL-backed store.
//
// The DSN (Data Source Name) format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...]
//
// Example DSNs:
//
//	user:password@tcp(localhost:3306)/braincycle
//	user:password@tcp(127.0.0.1:3306)/braincycle?parseTime=true
//
// Never hardcode credentials in source; read the DSN from the environment:
//
//	dsn := os.Getenv("BRAINCYCLE_MYSQL_DSN")
//	st, err := store.NewMySQLStore[pipeline.State](dsn)
//
// The store automatically creates required tables, configures connection
// pooling, and verifies the connection with a ping.
func NewMySQLStore[S any](dsn string) (*MySQLStore[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	store := &MySQLStore[S]{db: db}

	if err := store.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables creates the required database schema if it doesn't exist.
func (m *MySQLStore[S]) createTables(ctx context.Context) error {
	stepsTable := `
		CREATE TABLE IF NOT EXISTS pipeline_steps (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(255) NOT NULL,
			step INT NOT NULL,
			stage VARCHAR(255) NOT NULL,
			state JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_run_id (run_id),
			INDEX idx_run_step (run_id, step),
			UNIQUE KEY unique_run_step (run_id, step)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, stepsTable); err != nil {
		return fmt.Errorf("failed to create pipeline_steps table: %w", err)
	}

	checkpointsTable := `
		CREATE TABLE IF NOT EXISTS pipeline_checkpoints (
			checkpoint_id VARCHAR(255) PRIMARY KEY,
			state JSON NOT NULL,
			step INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, checkpointsTable); err != nil {
		return fmt.Errorf("failed to create pipeline_checkpoints table: %w", err)
	}

	return nil
}

// SaveStep persists a pipeline execution step.
//
// The state is JSON-serialized. Saving the same (runID, step) pair twice
// replaces the earlier record.
func (m *MySQLStore[S]) SaveStep(ctx context.Context, runID string, step int, stage string, state S) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
		INSERT INTO pipeline_steps (run_id, step, stage, state)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE stage = VALUES(stage), state = VALUES(state)
	`
	if _, err := m.db.ExecContext(ctx, query, runID, step, stage, string(data)); err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}

	return nil
}

// LoadLatest retrieves the most recent state for a run.
//
// Returns ErrNotFound if the run has no persisted steps.
func (m *MySQLStore[S]) LoadLatest(ctx context.Context, runID string) (state S, step int, err error) {
	var zero S

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return zero, 0, fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	query := `
		SELECT step, state FROM pipeline_steps
		WHERE run_id = ?
		ORDER BY step DESC
		LIMIT 1
	`
	var data string
	row := m.db.QueryRowContext(ctx, query, runID)
	if err := row.Scan(&step, &data); err != nil {
		if err == sql.ErrNoRows {
			return zero, 0, ErrNotFound
		}
		return zero, 0, fmt.Errorf("failed to load latest step: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return zero, 0, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return state, step, nil
}

// SaveCheckpoint creates a named checkpoint, overwriting any existing
// checkpoint with the same ID.
func (m *MySQLStore[S]) SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
		INSERT INTO pipeline_checkpoints (checkpoint_id, state, step)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE state = VALUES(state), step = VALUES(step)
	`
	if _, err := m.db.ExecContext(ctx, query, cpID, string(data), step); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	return nil
}

// LoadCheckpoint retrieves a named checkpoint.
//
// Returns ErrNotFound if the checkpoint ID doesn't exist.
func (m *MySQLStore[S]) LoadCheckpoint(ctx context.Context, cpID string) (state S, step int, err error) {
	var zero S

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return zero, 0, fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	query := `SELECT state, step FROM pipeline_checkpoints WHERE checkpoint_id = ?`
	var data string
	row := m.db.QueryRowContext(ctx, query, cpID)
	if err := row.Scan(&data, &step); err != nil {
		if err == sql.ErrNoRows {
			return zero, 0, ErrNotFound
		}
		return zero, 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return zero, 0, fmt.Errorf("failed to unmarshal checkpoint state: %w", err)
	}

	return state, step, nil
}

// Close closes the database connection pool.
func (m *MySQLStore[S]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// Ping verifies the database connection is alive.
func (m *MySQLStore[S]) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}
	return m.db.PingContext(ctx)
}

// Stats returns database connection pool statistics.
func (m *MySQLStore[S]) Stats() sql.DBStats {
	return m.db.Stats()
}
