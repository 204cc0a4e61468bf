package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/mkrupp/mediagate/internal/domain"
)

// policyFile is the TOML form of a validation policy. Nil fields are absent.
type policyFile struct {
	MaxVideoWidth        *int  `toml:"max_video_width"`
	MaxVideoHeight       *int  `toml:"max_video_height"`
	BlockOnVideoMetaFail *bool `toml:"block_on_video_meta_fail"`
}

// loadPolicy overlays the TOML policy file at path onto base. Keys missing
// from the file keep their value from base.
func loadPolicy(path string, base domain.ValidationPolicy) (domain.ValidationPolicy, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.ValidationPolicy{}, fmt.Errorf("open policy: %w", err)
	}
	defer file.Close()

	var overrides policyFile

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&overrides); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return domain.ValidationPolicy{}, fmt.Errorf("parse policy: %w: %s", domain.ErrInvalidPolicy, strictErr.String())
		}

		return domain.ValidationPolicy{}, fmt.Errorf("parse policy: %w", err)
	}

	policy := base
	policy.Overlay(overrides.MaxVideoWidth, overrides.MaxVideoHeight, overrides.BlockOnVideoMetaFail)

	if err := policy.Validate(); err != nil {
		return domain.ValidationPolicy{}, fmt.Errorf("validate policy: %w", err)
	}

	return policy, nil
}
