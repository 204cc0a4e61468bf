package admissionsvc

import (
	"time"

	"github.com/mkrupp/mediagate/internal/domain"
)

// AdmissionConfig holds configuration parameters for the admission service.
type AdmissionConfig struct {
	// MaxVideoWidth is the larger resolution bound; 0 leaves it unset.
	// Default is 1920.
	MaxVideoWidth int `env:"MAX_VIDEO_WIDTH" default:"1920"`

	// MaxVideoHeight is the smaller resolution bound; 0 leaves it unset.
	// Default is 1080.
	MaxVideoHeight int `env:"MAX_VIDEO_HEIGHT" default:"1080"`

	// BlockOnVideoMetaFail rejects videos whose resolution cannot be read.
	// Unset (nil) means true.
	BlockOnVideoMetaFail *bool `env:"BLOCK_ON_VIDEO_META_FAIL"`

	// ProbeTimeout bounds a single probe; 0 disables the timeout.
	// The orchestrator stops waiting for a probe once it expires, even when
	// the prober ignores its context. Default is 30s.
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT" default:"30s"`

	// Workers is the number of files probed concurrently.
	// Default is 1, which probes the batch strictly one file after another.
	Workers int `env:"WORKERS" default:"1"`
}

// Policy returns the validation policy described by the configuration.
func (cfg AdmissionConfig) Policy() domain.ValidationPolicy {
	return domain.ValidationPolicy{
		MaxWidth:            cfg.MaxVideoWidth,
		MaxHeight:           cfg.MaxVideoHeight,
		AdmitOnProbeFailure: cfg.BlockOnVideoMetaFail != nil && !*cfg.BlockOnVideoMetaFail,
	}
}
