package decision

import (
	"context"
	"errors"

	"github.com/mkrupp/mediagate/internal/domain"
)

// ErrBatchExists is returned when recording a batch ID that is already stored.
var ErrBatchExists = errors.New("batch already recorded")

// Repository defines the interface for the admission audit trail.
type Repository interface {
	// Record stores a batch and all its decisions atomically.
	// Returns ErrBatchExists if the batch ID is already stored.
	Record(ctx context.Context, batch domain.BatchRecord) error

	// Fetch retrieves a batch by its ID with decisions in input order.
	// Returns domain.ErrBatchNotFound if the batch does not exist.
	Fetch(ctx context.Context, id domain.BatchID) (domain.BatchRecord, error)

	// Recent returns up to limit batches, newest first, without decisions.
	Recent(ctx context.Context, limit int) ([]domain.BatchRecord, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
