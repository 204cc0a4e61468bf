//go:build unix

package probe

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func checkAccess(dir string) error {
	if err := unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("insufficient permissions: %w", err)
	}

	return nil
}
