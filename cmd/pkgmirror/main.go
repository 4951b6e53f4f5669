// Command pkgmirror builds, indexes and serves local mirrors of Python
// source distributions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgmirror/internal/cli"
	errs "github.com/matzehuels/pkgmirror/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRoot().ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		os.Exit(130)
	default:
		fmt.Fprintln(os.Stderr, "Error:", errs.UserMessage(err))
		os.Exit(1)
	}
}

// newRoot adds the logging flags, which only the binary owns, to the CLI's
// root command.
func newRoot() *cobra.Command {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	flags := root.PersistentFlags()
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")
	quiet := flags.BoolP("quiet", "q", false, "only log warnings and errors")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	setup := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		switch {
		case *verbose:
			c.SetLogLevel(cli.LogDebug)
		case *quiet:
			c.SetLogLevel(cli.LogWarn)
		}
		if setup == nil {
			return nil
		}
		return setup(cmd, args)
	}
	return root
}
