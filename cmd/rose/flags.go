package main

import (
	"flag"
	"fmt"
	"os"
)

// flagSet wraps flag.FlagSet with a consistent "Usage: rose CMD ..."
// banner, the same role demlo.go's custom flag.Usage closure plays for
// its single top-level command, repeated once per subcommand here.
type flagSet struct {
	*flag.FlagSet
	name  string
	usage string
}

func newFS(name, usage string) *flagSet {
	fs := &flagSet{FlagSet: flag.NewFlagSet(name, flag.ContinueOnError), name: name, usage: usage}
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rose %s %s\n\nFlags:\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

// parseOrUsage parses args, printing the subcommand's usage and
// reporting failure for anything but a clean parse (flag.ErrHelp
// included, since -h should still exit non-zero from run's perspective
// but has already printed its own usage).
func parseOrUsage(fs *flagSet, args []string) bool {
	if err := fs.Parse(args); err != nil {
		return false
	}
	return true
}
