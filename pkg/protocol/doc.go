// Package protocol implements the client and server sides of the
// event-sourcing protocol over a pluggable transport.
//
// # Client
//
// The Client correlates commands with their results through a private
// pending table and multiplexes subscribed event streams:
//
//	client, err := protocol.NewClient(ctx, tr)
//
//	res, err := client.SendCommand(ctx, &wire.Command{
//	    ID:     uuid.NewString(),
//	    Target: "user-456",
//	    Name:   "CreateUser",
//	    Payload: payload,
//	})
//
//	sub, err := client.Subscribe(ctx, "user-123")
//	for ev := range sub.Events() {
//	    // events arrive in server publication order
//	}
//
// SendCommand fails with *CommandTimeoutError after DefaultCommandTimeout
// (10 seconds) if no result arrives; a result is delivered at most once and
// late duplicates are discarded.
//
// # Server
//
// The Server accepts connections, funnels inbound commands into a single
// stream, and tracks per-client stream subscriptions:
//
//	server, err := protocol.NewServer(ctx, tr)
//	for cmd := range server.Commands() {
//	    res := registry.Dispatch(ctx, cmd)
//	    server.SendResult(cmd.ID, res)
//	}
//
// PublishEvent broadcasts an event when at least one client is subscribed to
// its stream; client-side filtering by stream ID keeps delivery precise.
// Disconnecting a client purges all its subscriptions.
//
// Both readers drop malformed messages (logged through pkg/log) and never
// terminate on bad input.
package protocol
