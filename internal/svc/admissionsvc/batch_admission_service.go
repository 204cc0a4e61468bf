package admissionsvc

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/infra/logging"
	"github.com/mkrupp/mediagate/internal/infra/probe"
)

// ErrPanic wraps a panic recovered from a prober.
var ErrPanic = errors.New("panic")

// BatchAdmissionService implements AdmissionService on top of a Prober.
// Files are decided by a bounded pool of workers; decisions are stored by
// input index so the output order never depends on completion order.
type BatchAdmissionService struct {
	prober probe.Prober
	cfg    AdmissionConfig
	log    logging.Logger
}

var _ AdmissionService = (*BatchAdmissionService)(nil)

// NewBatchAdmissionService creates a new BatchAdmissionService that probes
// videos with the given prober.
func NewBatchAdmissionService(prober probe.Prober, cfg AdmissionConfig) *BatchAdmissionService {
	return &BatchAdmissionService{
		prober: prober,
		cfg:    cfg,
		log:    logging.GetLogger("svc.admissionsvc.batch_admission_service"),
	}
}

// Policy implements AdmissionService.Policy.
func (svc *BatchAdmissionService) Policy() domain.ValidationPolicy {
	return svc.cfg.Policy()
}

// ValidateBatch implements AdmissionService.ValidateBatch.
func (svc *BatchAdmissionService) ValidateBatch(
	ctx context.Context,
	files []domain.MediaFile,
	policy domain.ValidationPolicy,
) (domain.ValidationResult, error) {
	decisions, err := svc.Decide(ctx, files, policy)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	return domain.Partition(decisions), nil
}

// Decide implements AdmissionService.Decide.
func (svc *BatchAdmissionService) Decide(
	ctx context.Context,
	files []domain.MediaFile,
	policy domain.ValidationPolicy,
) (decisions []domain.Decision, err error) {
	log := svc.log.With(logging.Group("batch",
		"files", len(files),
		"workers", svc.workers(),
		logging.Group("policy",
			"maxWidth", policy.MaxWidth,
			"maxHeight", policy.MaxHeight,
			"blockOnProbeFailure", policy.BlocksOnProbeFailure(),
		),
	))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "batch admission failed", "error", err)
		} else {
			allowed, blocked := domain.CountDecisions(decisions)
			log.DebugContext(ctx, "batch admitted", "allowed", allowed, "blocked", blocked)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("decide: %w", err)
	}

	decisions = make([]domain.Decision, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(svc.workers())

	for i, file := range files {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err //nolint:wrapcheck
			}

			decisions[i] = svc.decide(groupCtx, file, policy)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("decide: %w", err)
	}

	// Probes interrupted by the caller look like probe failures; do not
	// report them as decisions.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("decide: %w", err)
	}

	return decisions, nil
}

func (svc *BatchAdmissionService) decide(
	ctx context.Context,
	file domain.MediaFile,
	policy domain.ValidationPolicy,
) domain.Decision {
	if !file.IsVideo() || !policy.Bounded() {
		return domain.Allow(file)
	}

	log := svc.log.With(logging.Group("file", "name", file.Name(), "type", file.MIMEType()))

	res, err := svc.probe(ctx, file)
	if err != nil {
		log.WarnContext(ctx, "video probe failed",
			"error", err,
			"blocked", policy.BlocksOnProbeFailure(),
		)

		if policy.BlocksOnProbeFailure() {
			return domain.Block(file, ReasonProbeFailed)
		}

		return domain.Allow(file)
	}

	verdict := Classify(res, policy)
	if !verdict.Admit {
		log.InfoContext(ctx, "video resolution too high",
			"resolution", verdict.Observed.String(),
			"bound", verdict.Bound.String(),
		)

		return domain.Block(file, verdict.Reason())
	}

	return domain.Allow(file)
}

type probeOutcome struct {
	res domain.Resolution
	err error
}

// probe bounds a single probe by ProbeTimeout and the caller's context. A
// prober that does not return in time is abandoned; its result is dropped.
func (svc *BatchAdmissionService) probe(ctx context.Context, file domain.MediaFile) (domain.Resolution, error) {
	if svc.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, svc.cfg.ProbeTimeout)
		defer cancel()
	}

	done := make(chan probeOutcome, 1)

	go func() {
		res, err := svc.callProber(ctx, file)
		done <- probeOutcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return domain.Resolution{}, domain.NewProbeError(file.Name(), ctx.Err())
	}
}

func (svc *BatchAdmissionService) callProber(ctx context.Context, file domain.MediaFile) (res domain.Resolution, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewProbeError(file.Name(), fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	res, err = svc.prober.Probe(ctx, file)
	if err != nil {
		var probeErr *domain.ProbeError
		if !errors.As(err, &probeErr) {
			err = domain.NewProbeError(file.Name(), err)
		}

		return domain.Resolution{}, err
	}

	return res, nil
}

func (svc *BatchAdmissionService) workers() int {
	if svc.cfg.Workers < 1 {
		return 1
	}

	return svc.cfg.Workers
}
