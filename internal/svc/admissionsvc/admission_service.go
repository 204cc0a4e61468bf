package admissionsvc

import (
	"context"

	"github.com/mkrupp/mediagate/internal/domain"
)

// AdmissionService decides which files of an upload batch are accepted.
type AdmissionService interface {
	// ValidateBatch partitions files into allowed and blocked entries under the
	// given policy. Per-file probe failures never fail the batch; the only
	// error is a cancelled ctx, in which case no result is returned.
	ValidateBatch(ctx context.Context, files []domain.MediaFile, policy domain.ValidationPolicy) (domain.ValidationResult, error)

	// Decide returns one decision per file in input order.
	// It has the same failure semantics as ValidateBatch.
	Decide(ctx context.Context, files []domain.MediaFile, policy domain.ValidationPolicy) ([]domain.Decision, error)

	// Policy returns the configured default policy.
	Policy() domain.ValidationPolicy
}
