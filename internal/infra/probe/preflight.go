package probe

import (
	"errors"
	"fmt"
	"os"
)

// ErrTempDirUnusable is returned by CheckTempDir when probe handles cannot be
// created in the configured directory.
var ErrTempDirUnusable = errors.New("probe temp dir unusable")

// Preflight runs CheckBinary and CheckTempDir and joins their failures.
func (p *FFprobeProber) Preflight() error {
	return errors.Join(p.CheckBinary(), p.CheckTempDir())
}

// CheckTempDir verifies that the directory holding probe handles exists and
// is readable and writable.
func (p *FFprobeProber) CheckTempDir() error {
	dir := p.tempDir()

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTempDirUnusable, dir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s: not a directory", ErrTempDirUnusable, dir)
	}

	if err := checkAccess(dir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTempDirUnusable, dir, err)
	}

	return nil
}

func (p *FFprobeProber) tempDir() string {
	if p.cfg.TempDir != "" {
		return p.cfg.TempDir
	}

	return os.TempDir()
}
