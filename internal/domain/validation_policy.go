package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidPolicy is returned by ValidationPolicy.Validate for negative bounds.
var ErrInvalidPolicy = errors.New("invalid validation policy")

const (
	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1080
)

// ValidationPolicy configures one admission batch. The zero value of every
// field is the safe one.
// A zero bound means unset. If both bounds are unset the policy does not
// gate resolution at all; if only one is unset it falls back to its default.
// Videos whose resolution cannot be read are blocked unless
// AdmitOnProbeFailure is set. On the wire the flag is the inverted
// blockOnVideoMetaFail.
type ValidationPolicy struct {
	MaxWidth            int
	MaxHeight           int
	AdmitOnProbeFailure bool
}

// policyJSON is the wire form of ValidationPolicy. Nil fields are absent.
type policyJSON struct {
	MaxWidth             *int  `json:"maxVideoWidth,omitempty"`
	MaxHeight            *int  `json:"maxVideoHeight,omitempty"`
	BlockOnVideoMetaFail *bool `json:"blockOnVideoMetaFail,omitempty"`
}

// DefaultValidationPolicy returns a 1920×1080 policy that blocks files
// whose resolution cannot be read.
func DefaultValidationPolicy() ValidationPolicy {
	return ValidationPolicy{
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
	}
}

// BlocksOnProbeFailure reports whether videos with an unreadable resolution
// are rejected.
func (p ValidationPolicy) BlocksOnProbeFailure() bool {
	return !p.AdmitOnProbeFailure
}

// SetBlockOnProbeFailure sets the inverted AdmitOnProbeFailure flag.
func (p *ValidationPolicy) SetBlockOnProbeFailure(block bool) {
	p.AdmitOnProbeFailure = !block
}

// MarshalJSON implements json.Marshaler.
func (p ValidationPolicy) MarshalJSON() ([]byte, error) {
	block := p.BlocksOnProbeFailure()

	//nolint:wrapcheck
	return json.Marshal(policyJSON{
		MaxWidth:             &p.MaxWidth,
		MaxHeight:            &p.MaxHeight,
		BlockOnVideoMetaFail: &block,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Keys missing from data keep
// their current value.
func (p *ValidationPolicy) UnmarshalJSON(data []byte) error {
	var wire policyJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("unmarshal policy: %w", err)
	}

	p.Overlay(wire.MaxWidth, wire.MaxHeight, wire.BlockOnVideoMetaFail)

	return nil
}

// Overlay replaces the fields whose value is non-nil.
func (p *ValidationPolicy) Overlay(maxWidth, maxHeight *int, blockOnVideoMetaFail *bool) {
	if maxWidth != nil {
		p.MaxWidth = *maxWidth
	}

	if maxHeight != nil {
		p.MaxHeight = *maxHeight
	}

	if blockOnVideoMetaFail != nil {
		p.SetBlockOnProbeFailure(*blockOnVideoMetaFail)
	}
}

// Bounded reports whether the policy sets at least one resolution bound.
func (p ValidationPolicy) Bounded() bool {
	return p.MaxWidth != 0 || p.MaxHeight != 0
}

// Bounds returns the effective bound pair, applying defaults to an unset
// bound.
func (p ValidationPolicy) Bounds() Resolution {
	bounds := Resolution{Width: p.MaxWidth, Height: p.MaxHeight}

	if bounds.Width == 0 {
		bounds.Width = DefaultMaxWidth
	}

	if bounds.Height == 0 {
		bounds.Height = DefaultMaxHeight
	}

	return bounds
}

// Validate rejects negative bounds. The admission pipeline itself does not
// call it; configuration loaders do.
func (p ValidationPolicy) Validate() error {
	if p.MaxWidth < 0 {
		return fmt.Errorf("%w: max width %d", ErrInvalidPolicy, p.MaxWidth)
	}

	if p.MaxHeight < 0 {
		return fmt.Errorf("%w: max height %d", ErrInvalidPolicy, p.MaxHeight)
	}

	return nil
}
