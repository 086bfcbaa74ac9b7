// Command es-log views and analyzes protocol log files.
//
// Log files are created when running es-server or es-client with the -log
// flag.
//
// Usage:
//
//	es-log <command> [flags] <file.eslog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	es-log view server.eslog
//
//	# View only wire-layer events for one connection
//	es-log view -layer wire -conn-id abc12345 server.eslog
//
//	# Follow one command across the log
//	es-log view -command-id 01c8... server.eslog
//
//	# Export to JSONL
//	es-log export server.eslog > server.jsonl
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/CodeForBreakfast/eventsourcing-go/cmd/es-log/commands"
)

const usage = `es-log - Protocol Log Analyzer

Usage:
  es-log <command> [flags] <file.eslog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL
  stats    Show statistics about the log file

Use "es-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "view":
		err = runView(args)
	case "export":
		err = runExport(args)
	case "stats":
		err = runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "es-log: %v\n", err)
		os.Exit(1)
	}
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	connID := fs.String("conn-id", "", "Filter by connection ID")
	layer := fs.String("layer", "", "Filter by layer: transport, wire, protocol")
	direction := fs.String("direction", "", "Filter by direction: in, out")
	commandID := fs.String("command-id", "", "Filter by command ID")
	streamID := fs.String("stream-id", "", "Filter by stream ID")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("view: expected one log file argument")
	}

	filter, err := commands.BuildFilter(*connID, *layer, *direction, *commandID, *streamID)
	if err != nil {
		return err
	}
	return commands.View(os.Stdout, fs.Arg(0), filter)
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("export: expected one log file argument")
	}
	return commands.Export(os.Stdout, fs.Arg(0))
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("stats: expected one log file argument")
	}
	return commands.Stats(os.Stdout, fs.Arg(0))
}
