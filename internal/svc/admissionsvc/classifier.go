package admissionsvc

import (
	"fmt"

	"github.com/mkrupp/mediagate/internal/domain"
)

const (
	// ReasonProbeFailed is shown for videos whose resolution could not be read.
	ReasonProbeFailed = "Unable to read video resolution metadata."

	reasonTooHighFormat = "Video resolution too high (%s). Max allowed is %s."
)

// Verdict is the classifier's decision for one resolution.
type Verdict struct {
	Admit    bool
	Observed domain.Resolution
	Bound    domain.Resolution
}

// Reason returns the user-facing rejection reason, or "" for admitted verdicts.
func (v Verdict) Reason() string {
	if v.Admit {
		return ""
	}

	return fmt.Sprintf(reasonTooHighFormat, v.Observed, v.Bound)
}

// Classify checks res against the policy's bounds in both orientations.
// The bound pair is symmetric: a 1080×1920 portrait video fits a 1920×1080
// policy. Comparisons are inclusive.
func Classify(res domain.Resolution, policy domain.ValidationPolicy) Verdict {
	bound := policy.Bounds()

	landscapeOK := res.Width <= bound.Width && res.Height <= bound.Height
	portraitOK := res.Height <= bound.Width && res.Width <= bound.Height

	return Verdict{
		Admit:    landscapeOK || portraitOK,
		Observed: res,
		Bound:    bound,
	}
}
