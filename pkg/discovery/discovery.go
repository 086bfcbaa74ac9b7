package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Service constants.
const (
	// ServiceType is the mDNS service type servers advertise under.
	ServiceType = "_eventsrc._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultTTL is the DNS record TTL.
	DefaultTTL = 120 * time.Second
)

// ServerInfo describes an advertised server.
type ServerInfo struct {
	// Name is the mDNS instance name.
	Name string

	// ServerID identifies the server instance.
	ServerID string

	// Port is the TCP port the server listens on.
	Port uint16

	// Version is the advertised software version.
	Version string
}

// ServerService is a server found while browsing.
type ServerService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string
	ServerID     string
	Version      string
}

// AdvertiserConfig configures an advertiser.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL. Default: DefaultTTL.
	TTL time.Duration
}

// Advertiser announces a server over mDNS using zeroconf.
type Advertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an mDNS advertiser.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	if config.TTL == 0 {
		config.TTL = DefaultTTL
	}
	return &Advertiser{config: config}
}

// Advertise starts announcing the server. A previous announcement for this
// advertiser is replaced.
func (a *Advertiser) Advertise(info ServerInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	txt := []string{
		"id=" + info.ServerID,
		"ver=" + info.Version,
	}

	opts := []zeroconf.ServerOption{
		zeroconf.TTL(uint32(a.config.TTL.Seconds())),
	}

	server, err := zeroconf.Register(
		info.Name,
		ServiceType,
		Domain,
		int(info.Port),
		txt,
		a.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	a.server = server
	return nil
}

// Stop withdraws the announcement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// interfaces returns the interfaces to advertise on, nil for all.
func (a *Advertiser) interfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Browse searches for servers until ctx ends. Entries from multiple
// interfaces are aggregated by instance name, so each server is emitted
// once.
func Browse(ctx context.Context, iface string) (<-chan *ServerService, error) {
	out := make(chan *ServerService)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if iface != "" {
		netIface, err := net.InterfaceByName(iface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*netIface}))
		}
	}

	go func() {
		defer close(out)

		seen := make(map[string]struct{})
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToService(entry)
				if svc == nil {
					continue
				}
				if _, dup := seen[svc.InstanceName]; dup {
					continue
				}
				seen[svc.InstanceName] = struct{}{}
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				delete(seen, entry.Instance)

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	return out, nil
}

// entryToService converts a zeroconf entry, returning nil for entries
// without the expected TXT records.
func entryToService(entry *zeroconf.ServiceEntry) *ServerService {
	var serverID, version string
	for _, record := range entry.Text {
		key, value, ok := strings.Cut(record, "=")
		if !ok {
			continue
		}
		switch key {
		case "id":
			serverID = value
		case "ver":
			version = value
		}
	}
	if serverID == "" {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &ServerService{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    addrs,
		ServerID:     serverID,
		Version:      version,
	}
}
