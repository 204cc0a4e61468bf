//go:build !unix

package probe

import (
	"fmt"
	"os"
)

func checkAccess(dir string) error {
	file, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	_ = file.Close()

	if err := os.Remove(file.Name()); err != nil {
		return fmt.Errorf("remove temp: %w", err)
	}

	return nil
}
