package decision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/infra/logging"
)

// SQLiteDecisionRepositoryConfig holds configuration for the SQLite decision repository.
type SQLiteDecisionRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/admissionsvc.db"`
}

// SQLiteDecisionRepository implements Repository using SQLite as the storage backend.
type SQLiteDecisionRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteDecisionRepository)(nil)

// SQLiteDecisionRepositoryFactory creates a factory function that returns a new SQLiteDecisionRepository.
// The factory function implements the RepositoryFactory type.
func SQLiteDecisionRepositoryFactory(cfg SQLiteDecisionRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteDecisionRepository(cfg)
	}
}

// NewSQLiteDecisionRepository creates a new SQLiteDecisionRepository with the given configuration.
// It creates the database directory and schema if needed.
// Returns an error if database connection or initialization fails.
func NewSQLiteDecisionRepository(cfg SQLiteDecisionRepositoryConfig) (*SQLiteDecisionRepository, error) {
	log := logging.GetLogger("repo.decision.sqlite_decision_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir all: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dataSourceName(cfg.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initializeDB(db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	log.Debug("decision repository opened")

	return &SQLiteDecisionRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

// connPragmas are applied by the driver to every pooled connection.
//
//nolint:gochecknoglobals
var connPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
}

func dataSourceName(path string) string {
	return path + "?_pragma=" + strings.Join(connPragmas, "&_pragma=")
}

func initializeDB(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS batches (
			id                     TEXT    PRIMARY KEY,
			created_at             INTEGER NOT NULL,
			max_width              INTEGER NOT NULL,
			max_height             INTEGER NOT NULL,
			block_on_probe_failure INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS batches_created_at ON batches (created_at);

		CREATE TABLE IF NOT EXISTS decisions (
			batch_id  TEXT    NOT NULL REFERENCES batches (id) ON DELETE CASCADE,
			position  INTEGER NOT NULL,
			filename  TEXT    NOT NULL,
			mime_type TEXT    NOT NULL,
			size      INTEGER NOT NULL,
			hash      TEXT    NOT NULL,
			allowed   INTEGER NOT NULL,
			reason    TEXT    NOT NULL,
			PRIMARY KEY (batch_id, position)
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Record implements Repository.Record using a single transaction.
func (r *SQLiteDecisionRepository) Record(ctx context.Context, batch domain.BatchRecord) (err error) {
	log := r.log.With(logging.Group("batch", "id", batch.ID, "decisions", len(batch.Decisions)))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "batch record failed", "error", err)
		} else {
			log.DebugContext(ctx, "batch recorded")
		}
	}()

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO batches (id, created_at, max_width, max_height, block_on_probe_failure) VALUES (?, ?, ?, ?, ?)",
		batch.ID.String(),
		batch.CreatedAt.UnixMilli(),
		batch.Policy.MaxWidth,
		batch.Policy.MaxHeight,
		batch.Policy.BlocksOnProbeFailure(),
	)
	if err != nil {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			switch liteErr.Code() {
			case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
				fallthrough
			case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
				err = errors.Join(ErrBatchExists, err)
			default:
				break
			}
		}

		return fmt.Errorf("insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO decisions (batch_id, position, filename, mime_type, size, hash, allowed, reason) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("prepare insert decision: %w", err)
	}
	defer stmt.Close()

	for _, decision := range batch.Decisions {
		if _, err = stmt.ExecContext(ctx,
			batch.ID.String(),
			decision.Position,
			decision.File.Filename,
			decision.File.MIMEType,
			decision.File.Size,
			decision.File.Hash,
			decision.Allowed,
			decision.Reason,
		); err != nil {
			return fmt.Errorf("insert decision %d: %w", decision.Position, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Fetch implements Repository.Fetch using SQLite.
func (r *SQLiteDecisionRepository) Fetch(ctx context.Context, id domain.BatchID) (domain.BatchRecord, error) {
	batch, err := r.scanBatch(r.db.QueryRowContext(ctx,
		"SELECT id, created_at, max_width, max_height, block_on_probe_failure FROM batches WHERE id = ?",
		id.String(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrBatchNotFound, err)
		}

		return domain.BatchRecord{}, fmt.Errorf("query batch: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT position, filename, mime_type, size, hash, allowed, reason FROM decisions WHERE batch_id = ? ORDER BY position",
		id.String(),
	)
	if err != nil {
		return domain.BatchRecord{}, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	batch.Decisions = []domain.DecisionRecord{}

	for rows.Next() {
		var decision domain.DecisionRecord

		if err := rows.Scan(
			&decision.Position,
			&decision.File.Filename,
			&decision.File.MIMEType,
			&decision.File.Size,
			&decision.File.Hash,
			&decision.Allowed,
			&decision.Reason,
		); err != nil {
			return domain.BatchRecord{}, fmt.Errorf("scan decision: %w", err)
		}

		batch.Decisions = append(batch.Decisions, decision)
	}

	if err := rows.Err(); err != nil {
		return domain.BatchRecord{}, fmt.Errorf("iterate decisions: %w", err)
	}

	return batch, nil
}

// Recent implements Repository.Recent using SQLite.
func (r *SQLiteDecisionRepository) Recent(ctx context.Context, limit int) ([]domain.BatchRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, created_at, max_width, max_height, block_on_probe_failure FROM batches ORDER BY created_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	batches := []domain.BatchRecord{}

	for rows.Next() {
		batch, err := r.scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}

		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}

	return batches, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteDecisionRepository) scanBatch(row scanner) (domain.BatchRecord, error) {
	var (
		batch     domain.BatchRecord
		id        string
		createdAt int64
		block     bool
	)

	if err := row.Scan(
		&id,
		&createdAt,
		&batch.Policy.MaxWidth,
		&batch.Policy.MaxHeight,
		&block,
	); err != nil {
		return domain.BatchRecord{}, err //nolint:wrapcheck
	}

	batch.Policy.SetBlockOnProbeFailure(block)

	batch.ID = domain.BatchID(id)
	batch.CreatedAt = time.UnixMilli(createdAt).UTC()

	return batch, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteDecisionRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
