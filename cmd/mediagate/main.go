// Command mediagate checks media files against an upload admission policy
// from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

// execute runs the CLI and maps its outcome to a process exit code:
// 0 when every file is admitted, 1 when any file is blocked and 2 on errors.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errBlocked) {
			return 1
		}

		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, err)
		}

		return 2
	}

	return 0
}
