// Command es-server runs an event-sourcing server over TCP.
//
// The server dispatches client commands through a demo user registry,
// appends the resulting events to an in-memory event store, and publishes
// them to subscribed clients.
//
// Usage:
//
//	es-server [flags]
//
// Flags:
//
//	-config string   Configuration file path (YAML)
//	-listen string   TCP listen address (default ":7410")
//	-log string      Protocol log file path
//	-name string     mDNS instance name (default "es-server")
//	-advertise       Advertise the server over mDNS
//
// Examples:
//
//	# Start with defaults
//	es-server
//
//	# Start with protocol logging and mDNS advertising
//	es-server -listen :7410 -log server.eslog -advertise
package main

import (
	"context"
	"crypto/tls"
	"flag"
	stdlog "log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/discovery"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/eventstore"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/protocol"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/transport/tcp"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/version"
)

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file path (YAML)")
		listen     = flag.String("listen", "", "TCP listen address")
		logFile    = flag.String("log", "", "Protocol log file path")
		name       = flag.String("name", "", "mDNS instance name")
		advertise  = flag.Bool("advertise", false, "Advertise the server over mDNS")
	)
	flag.Parse()

	config := DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = LoadConfig(*configPath)
		if err != nil {
			stdlog.Fatalf("config: %v", err)
		}
	}
	if *listen != "" {
		config.Listen = *listen
	}
	if *logFile != "" {
		config.LogFile = *logFile
	}
	if *name != "" {
		config.Name = *name
	}
	if *advertise {
		config.Advertise = true
	}

	if err := run(config); err != nil {
		stdlog.Fatal(err)
	}
}

func run(config Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logger log.Logger = log.NoopLogger{}
	if config.LogFile != "" {
		fileLogger, err := log.NewFileLogger(config.LogFile)
		if err != nil {
			return err
		}
		defer fileLogger.Close()
		logger = fileLogger
	}

	var tlsConf *tls.Config
	if config.TLS.CertFile != "" && config.TLS.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(config.TLS.CertFile, config.TLS.KeyFile)
		if err != nil {
			return err
		}
		tlsConf = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS13}
	}

	listener, err := tcp.Listen(tcp.ServerConfig{
		Address:   config.Listen,
		TLSConfig: tlsConf,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer listener.Close()
	stdlog.Printf("listening on %s", listener.Addr())

	server, err := protocol.NewServer(ctx, listener, protocol.WithServerLogger(logger))
	if err != nil {
		return err
	}
	defer server.Close()

	if config.Advertise {
		adv := discovery.NewAdvertiser(discovery.AdvertiserConfig{})
		_, portStr, _ := net.SplitHostPort(listener.Addr().String())
		port, _ := strconv.Atoi(portStr)
		err := adv.Advertise(discovery.ServerInfo{
			Name:     config.Name,
			ServerID: uuid.NewString(),
			Port:     uint16(port),
			Version:  version.Current,
		})
		if err != nil {
			return err
		}
		defer adv.Stop()
		stdlog.Printf("advertising as %q", config.Name)
	}

	store := eventstore.NewMemoryStore()
	registry, err := NewUserRegistry(store)
	if err != nil {
		return err
	}

	// Per-stream watermark of event numbers already published, so each
	// stored event is published exactly once.
	published := make(map[string]uint64)

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-server.Commands():
			if !ok {
				return nil
			}

			res := registry.Dispatch(ctx, cmd)
			if err := server.SendResult(cmd.ID, res); err != nil {
				stdlog.Printf("send result %s: %v", cmd.ID, err)
			}

			if !res.Succeeded() {
				continue
			}

			streamID := cmd.Target
			events, err := store.Read(ctx, streamID, published[streamID]+1)
			if err != nil {
				continue
			}
			for _, ev := range events {
				if err := server.PublishEvent(ev); err != nil {
					stdlog.Printf("publish %s#%d: %v", streamID, ev.Position.EventNumber, err)
				}
				published[streamID] = ev.Position.EventNumber
			}
		}
	}
}
