// Command alignsum measures how much slower a vectorized float64 sum gets when
// the array it reads starts at a misaligned address.
//
// To benchmark: `go run ./cmd/alignsum run --size=1000000 --offset=7 --iterations=1000 --trials=5`
//
// To re-print a saved run: `go run ./cmd/alignsum show --npz=alignsum.npz`
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&RunCommand{out: os.Stdout}, "")
	subcommands.Register(&ShowCommand{out: os.Stdout}, "")
	subcommands.Register(&CPUInfoCommand{out: os.Stdout}, "")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := subcommands.Execute(ctx)
	stop()
	os.Exit(int(status))
}
