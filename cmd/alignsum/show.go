package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/ahmedtd/alignsum/bench"
	"github.com/google/subcommands"
)

type ShowCommand struct {
	out io.Writer

	npzFile string
	unit    string
}

var _ subcommands.Command = (*ShowCommand)(nil)

func (*ShowCommand) Name() string {
	return "show"
}

func (*ShowCommand) Synopsis() string {
	return "Print a report saved by run --npz"
}

func (*ShowCommand) Usage() string {
	return ``
}

func (c *ShowCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.npzFile, "npz", "alignsum.npz", "Path to the saved measurements")
	f.StringVar(&c.unit, "unit", string(bench.Nanoseconds), "Time unit for the report: ns, us or ms")
}

func (c *ShowCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return exitStatus(err)
	}
	return subcommands.ExitSuccess
}

func (c *ShowCommand) executeErr(ctx context.Context) error {
	unit, err := bench.ParseUnit(c.unit)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	report, err := bench.ReadNPZ(c.npzFile)
	if err != nil {
		return fmt.Errorf("while loading measurements: %w", err)
	}

	if err := bench.WriteText(c.out, report, unit); err != nil {
		return fmt.Errorf("while writing report: %w", err)
	}
	return nil
}
