package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/command"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/protocol"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/wire"
)

// repl is the interactive command loop.
type repl struct {
	client *protocol.Client
	rl     *readline.Instance

	mu   sync.Mutex
	subs map[string]*protocol.Subscription
}

func newREPL(client *protocol.Client) (*repl, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "es> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &repl{
		client: client,
		rl:     rl,
		subs:   make(map[string]*protocol.Subscription),
	}, nil
}

// Run reads commands until EOF, interrupt, or ctx cancellation.
func (r *repl) Run(ctx context.Context, cancel context.CancelFunc) {
	defer r.rl.Close()

	r.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(r.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			r.printHelp()

		case "send", "s":
			r.cmdSend(ctx, args)

		case "subscribe", "sub":
			r.cmdSubscribe(ctx, args)

		case "unsubscribe", "unsub":
			r.cmdUnsubscribe(args)

		case "subs":
			r.cmdSubs()

		case "quit", "exit", "q":
			cancel()
			return

		default:
			fmt.Fprintf(r.rl.Stdout(), "unknown command %q, try help\n", cmd)
		}
	}
}

func (r *repl) printHelp() {
	fmt.Fprint(r.rl.Stdout(), `Commands:
  send <name> <target> [json]  Send a command
  subscribe <stream-id>        Subscribe to a stream's events
  unsubscribe <stream-id>      Close a stream subscription
  subs                         List active subscriptions
  quit                         Exit
`)
}

func (r *repl) cmdSend(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(r.rl.Stdout(), "usage: send <name> <target> [json]")
		return
	}

	payload := json.RawMessage("{}")
	if len(args) > 2 {
		raw := strings.Join(args[2:], " ")
		if !json.Valid([]byte(raw)) {
			fmt.Fprintf(r.rl.Stdout(), "invalid payload JSON: %s\n", raw)
			return
		}
		payload = json.RawMessage(raw)
	}

	res, err := r.client.SendCommand(ctx, &wire.Command{
		ID:      uuid.NewString(),
		Target:  args[1],
		Name:    args[0],
		Payload: payload,
	})
	if err != nil {
		fmt.Fprintf(r.rl.Stdout(), "error: %v\n", err)
		return
	}

	switch result := res.(type) {
	case command.Success:
		fmt.Fprintf(r.rl.Stdout(), "ok: %s\n", result.Position)
	case command.Failure:
		fmt.Fprintf(r.rl.Stdout(), "failed: %v\n", result.Err)
	}
}

func (r *repl) cmdSubscribe(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.rl.Stdout(), "usage: subscribe <stream-id>")
		return
	}
	streamID := args[0]

	sub, err := r.client.Subscribe(ctx, streamID)
	if err != nil {
		fmt.Fprintf(r.rl.Stdout(), "error: %v\n", err)
		return
	}

	r.mu.Lock()
	r.subs[streamID] = sub
	r.mu.Unlock()

	// Print events as they arrive, without disturbing the prompt.
	go func() {
		for ev := range sub.Events() {
			fmt.Fprintf(r.rl.Stdout(), "event %s #%d %s %s\n",
				ev.Position.StreamID, ev.Position.EventNumber, ev.Type, ev.Data)
		}
		r.mu.Lock()
		if r.subs[streamID] == sub {
			delete(r.subs, streamID)
		}
		r.mu.Unlock()
	}()

	fmt.Fprintf(r.rl.Stdout(), "subscribed to %s\n", streamID)
}

func (r *repl) cmdUnsubscribe(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.rl.Stdout(), "usage: unsubscribe <stream-id>")
		return
	}

	r.mu.Lock()
	sub, ok := r.subs[args[0]]
	r.mu.Unlock()
	if !ok {
		fmt.Fprintf(r.rl.Stdout(), "not subscribed to %s\n", args[0])
		return
	}

	sub.Close()
	fmt.Fprintf(r.rl.Stdout(), "unsubscribed from %s\n", args[0])
}

func (r *repl) cmdSubs() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.subs) == 0 {
		fmt.Fprintln(r.rl.Stdout(), "no active subscriptions")
		return
	}
	for streamID := range r.subs {
		fmt.Fprintf(r.rl.Stdout(), "  %s\n", streamID)
	}
}
