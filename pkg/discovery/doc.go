// Package discovery implements mDNS/DNS-SD discovery of event-sourcing
// servers.
//
// Servers advertise under the _eventsrc._tcp service type. TXT records
// carry id (server instance ID) and ver (software version). Clients browse
// the same service type to find servers on the local network without
// configuration:
//
//	adv := discovery.NewAdvertiser(discovery.AdvertiserConfig{})
//	err := adv.Advertise(discovery.ServerInfo{
//	    Name:     "orders-1",
//	    ServerID: serverID,
//	    Port:     7410,
//	    Version:  version.Current,
//	})
//	defer adv.Stop()
//
//	services, err := discovery.Browse(ctx, "")
//	for svc := range services {
//	    // dial svc.Addresses[0]:svc.Port
//	}
package discovery
