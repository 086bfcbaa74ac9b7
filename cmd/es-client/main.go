// Command es-client is an interactive client for an event-sourcing server.
//
// Usage:
//
//	es-client [flags]
//
// Flags:
//
//	-addr string   Server address (default "localhost:7410")
//	-log string    Protocol log file path
//	-discover      Discover a server via mDNS instead of -addr
//
// Interactive Commands:
//
//	send <name> <target> [json]  - Send a command (e.g. send CreateUser user-1 {"email":"a@b.c","name":"Ada"})
//	subscribe <stream-id>        - Subscribe to a stream's events
//	unsubscribe <stream-id>      - Close a stream subscription
//	subs                         - List active subscriptions
//	quit                         - Exit
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/discovery"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/protocol"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/transport/tcp"
)

func main() {
	var (
		addr     = flag.String("addr", "localhost:7410", "Server address")
		logFile  = flag.String("log", "", "Protocol log file path")
		discover = flag.Bool("discover", false, "Discover a server via mDNS")
	)
	flag.Parse()

	if err := run(*addr, *logFile, *discover); err != nil {
		stdlog.Fatal(err)
	}
}

func run(addr, logFile string, discover bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logger log.Logger = log.NoopLogger{}
	if logFile != "" {
		fileLogger, err := log.NewFileLogger(logFile)
		if err != nil {
			return err
		}
		defer fileLogger.Close()
		logger = fileLogger
	}

	if discover {
		found, err := discoverServer(ctx)
		if err != nil {
			return err
		}
		addr = found
	}

	conn, err := tcp.DialRetry(ctx, addr, tcp.WithDialLogger(logger))
	if err != nil {
		return err
	}

	client, err := protocol.NewClient(ctx, conn, protocol.WithClientLogger(logger))
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()
	fmt.Printf("connected to %s\n", addr)

	repl, err := newREPL(client)
	if err != nil {
		return err
	}
	repl.Run(ctx, stop)
	return nil
}

// discoverServer browses mDNS and returns the first server's address.
func discoverServer(ctx context.Context) (string, error) {
	fmt.Println("discovering servers...")

	services, err := discovery.Browse(ctx, "")
	if err != nil {
		return "", err
	}

	svc, ok := <-services
	if !ok {
		return "", fmt.Errorf("no server found")
	}
	if len(svc.Addresses) == 0 {
		return "", fmt.Errorf("server %q has no addresses", svc.InstanceName)
	}

	addr := net.JoinHostPort(svc.Addresses[0], strconv.Itoa(int(svc.Port)))
	fmt.Printf("found %q at %s\n", svc.InstanceName, addr)
	return addr, nil
}
