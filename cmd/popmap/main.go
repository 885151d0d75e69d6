// Command popmap draws world population choropleths.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/popmap/internal/cli"
	poperrors "github.com/matzehuels/popmap/pkg/errors"
)

// exitInterrupted follows the shell convention for SIGINT (128 + 2).
const exitInterrupted = 130

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	os.Exit(report(os.Stderr, err))
}

// run builds the command tree and executes args. --verbose is read in the
// pre-run hook because the level is only known after flag parsing.
func run(ctx context.Context, args []string) error {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.SetArgs(args)

	verbose := root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	setup := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if *verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if setup == nil {
			return nil
		}
		return setup(cmd, args)
	}

	return root.ExecuteContext(ctx)
}

// report prints err for people and returns the process exit code.
func report(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	}
	if code := poperrors.GetCode(err); code != "" {
		fmt.Fprintf(w, "error [%s]: %s\n", code, poperrors.UserMessage(err))
	} else {
		fmt.Fprintln(w, "error:", err)
	}
	return 1
}
