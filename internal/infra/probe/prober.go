// Package probe obtains decoded pixel dimensions of media files from an
// external decoder.
//
// Prober is the capability the admission pipeline depends on. FFprobeProber
// is the production implementation; ProberFunc adapts plain functions for
// stubs and tests.
package probe

import (
	"context"

	"github.com/mkrupp/mediagate/internal/domain"
)

// Prober establishes the resolution of a single media file.
type Prober interface {
	// Probe returns the decoded dimensions of the file's first video stream.
	// Failures are reported as *domain.ProbeError. Implementations must
	// release any per-file resource before returning and must honour ctx.
	Probe(ctx context.Context, file domain.MediaFile) (domain.Resolution, error)
}

// ProberFunc is an adapter to allow the use of ordinary functions as Probers.
type ProberFunc func(ctx context.Context, file domain.MediaFile) (domain.Resolution, error)

var _ Prober = (ProberFunc)(nil)

// Probe calls f(ctx, file).
func (f ProberFunc) Probe(ctx context.Context, file domain.MediaFile) (domain.Resolution, error) {
	return f(ctx, file)
}
