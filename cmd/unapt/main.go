// Command unapt installs single-file packages from a remote file host.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZebulonRouseFrantzich/unapt/internal/binary"
	"github.com/ZebulonRouseFrantzich/unapt/internal/config"
	"github.com/ZebulonRouseFrantzich/unapt/internal/platform"
	"github.com/ZebulonRouseFrantzich/unapt/internal/transaction"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

// errReported marks a failure whose message has already been printed.
var errReported = errors.New("failure already reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], defaultDeps(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, d *deps, stdout, stderr io.Writer) int {
	opts := &rootOptions{}
	root := newRootCommand(opts, d)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stderr, styleError.Render("Error:"), describeError(err, opts.Verbose))
		}
		return 1
	}
	return 0
}

// describeError turns an operation error into the message shown to users.
func describeError(err error, verbose bool) string {
	var (
		statusErr *binary.StatusError
		parseErr  *config.ParseError
		stepErr   *transaction.StepError
	)

	switch {
	case errors.Is(err, platform.ErrUnsupportedPlatform):
		return "Unsupported platform."
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.As(err, &parseErr):
		return config.FormatError(parseErr, verbose)
	case verbose && errors.As(err, &stepErr):
		return fmt.Sprintf("%v (failed step: %s)", stepErr.Err, stepErr.Step)
	case errors.As(err, &stepErr):
		return stepErr.Err.Error()
	}
	return err.Error()
}
