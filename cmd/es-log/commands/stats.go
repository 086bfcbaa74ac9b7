package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
)

// Stats summarizes a log file: event counts per layer and message type,
// error count, connection count, and the covered time span.
func Stats(w io.Writer, path string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	var (
		total    int
		errCount int
		first    time.Time
		last     time.Time
		layers   = make(map[string]int)
		types    = make(map[string]int)
		conns    = make(map[string]struct{})
	)

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		total++
		layers[event.Layer.String()]++
		if event.ConnectionID != "" {
			conns[event.ConnectionID] = struct{}{}
		}
		if event.Message != nil {
			types[event.Message.Type]++
		}
		if event.Category == log.CategoryError {
			errCount++
		}

		if first.IsZero() || event.Timestamp.Before(first) {
			first = event.Timestamp
		}
		if event.Timestamp.After(last) {
			last = event.Timestamp
		}
	}

	fmt.Fprintf(w, "Events:      %d\n", total)
	fmt.Fprintf(w, "Connections: %d\n", len(conns))
	fmt.Fprintf(w, "Errors:      %d\n", errCount)
	if total > 0 {
		fmt.Fprintf(w, "Time span:   %s .. %s (%s)\n",
			first.UTC().Format(time.RFC3339), last.UTC().Format(time.RFC3339),
			last.Sub(first).Round(time.Millisecond))
	}

	fmt.Fprintln(w, "\nBy layer:")
	for _, name := range sortedKeys(layers) {
		fmt.Fprintf(w, "  %-10s %d\n", name, layers[name])
	}

	if len(types) > 0 {
		fmt.Fprintln(w, "\nBy message type:")
		for _, name := range sortedKeys(types) {
			fmt.Fprintf(w, "  %-15s %d\n", name, types[name])
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
