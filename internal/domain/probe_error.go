package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProbe matches every ProbeError via errors.Is.
	ErrProbe = errors.New("probe failed")
	// ErrNoVideoStream is returned when the decoder reports no usable video stream.
	ErrNoVideoStream = errors.New("no video stream")
)

// ProbeError reports that the resolution of a single file could not be established.
type ProbeError struct {
	Filename string
	Err      error
}

// NewProbeError wraps err as a ProbeError for the given file name.
func NewProbeError(filename string, err error) *ProbeError {
	return &ProbeError{Filename: filename, Err: err}
}

func (e *ProbeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("probe %q", e.Filename)
	}

	return fmt.Sprintf("probe %q: %v", e.Filename, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrProbe) hold for every ProbeError.
func (e *ProbeError) Is(target error) bool {
	return target == ErrProbe
}
