// Package main is the hata command line tool.
//
// It scaffolds bot projects and talks to the Discord REST API with the same
// client, entity store and cache the library uses:
//
//	hata new project mybot --bot main --bot helper
//	hata new plugin greetings
//	hata fetch user 80351110224678912 --save
//	hata watch guild
//	hata version
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hata-go/hata/pkg/logger"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

// ══════════════════════════════════════════════════════════════════════════════
// ROOT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// cli holds state shared by every subcommand of one invocation.
type cli struct {
	verbose  bool
	logLevel string
	output   io.Writer
	log      *logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{log: logger.Nop()}

	root := &cobra.Command{
		Use:           "hata",
		Short:         "Discord bot toolkit",
		Long:          "hata scaffolds Discord bot projects and inspects Discord entities over the REST API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.output = cmd.ErrOrStderr()
			c.log = c.newLogger(c.output)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.log.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newVersionCmd(),
		newNewCmd(c),
		newFetchCmd(c),
		newWatchCmd(c),
	)
	return root
}

// newLogger writes JSON logs to w. Without flags only warnings and errors
// reach the terminal.
func (c *cli) newLogger(w io.Writer) *logger.Logger {
	level := logger.LevelWarn
	switch {
	case c.verbose:
		level = logger.LevelDebug
	case c.logLevel != "":
		level = logger.ParseLevel(c.logLevel)
	}
	return logger.New(logger.Options{Output: w, Level: level})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hata version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hata %s\n", Version)
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
