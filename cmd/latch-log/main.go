// Command latch-log inspects protocol capture files written by
// latch-device -protocol-log.
//
// Usage:
//
//	latch-log <command> [flags] <file.llog>
//
// Commands:
//
//	view     Print events in a readable form
//	export   Convert a capture to JSONL or CSV
//	filter   Copy matching events into a new capture
//	stats    Summarize a capture
//
// Examples:
//
//	# Everything, readable
//	latch-log view device.llog
//
//	# Only authorization decisions
//	latch-log view -category decision device.llog
//
//	# Machine-readable export
//	latch-log export -format jsonl device.llog
//
//	# One connection's events into a smaller capture
//	latch-log filter -conn-id abc12345 -o filtered.llog device.llog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/latch-protocol/latch-go/cmd/latch-log/commands"
)

const usage = `latch-log inspects protocol capture files.

Usage:
  latch-log <command> [flags] <file.llog>

Commands:
  view     Print events in a readable form
  export   Convert a capture to JSONL or CSV
  filter   Copy matching events into a new capture
  stats    Summarize a capture

Run "latch-log <command> -help" for the command's flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	layer := fs.String("layer", "", "Only this layer (transport, wire, service)")
	direction := fs.String("direction", "", "Only this direction (in, out, none)")
	category := fs.String("category", "", "Only this category (message, state, decision, error)")
	topic := fs.String("topic", "", "Only this exact topic")

	path := parseArgs(fs, args)

	filter, err := commands.BuildFilter("", *direction, *layer, *category, *topic)
	if err != nil {
		fatal(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "jsonl", "Output format: jsonl, csv")
	output := fs.String("o", "", "Output file (default stdout)")

	path := parseArgs(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	connID := fs.String("conn-id", "", "Keep events for this connection ID")
	layer := fs.String("layer", "", "Keep events for this layer")
	direction := fs.String("direction", "", "Keep events for this direction")
	category := fs.String("category", "", "Keep events for this category")
	topic := fs.String("topic", "", "Keep events for this topic")
	output := fs.String("o", "", "Output file (required)")

	path := parseArgs(fs, args)

	if *output == "" {
		fatal(fmt.Errorf("output file required (-o)"))
	}
	filter, err := commands.BuildFilter(*connID, *direction, *layer, *category, *topic)
	if err != nil {
		fatal(err)
	}
	if err := commands.RunFilter(path, filter, *output); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	path := parseArgs(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

func parseArgs(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
