package discovery

import (
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// Advertiser publishes a broker over mDNS.
type Advertiser struct {
	// Interface restricts advertising to one network interface.
	// Empty means all interfaces.
	Interface string

	mu     sync.Mutex
	server *zeroconf.Server
}

// Advertise starts (or restarts) the mDNS advertisement.
func (a *Advertiser) Advertise(info BrokerInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	instanceName := info.InstanceName
	if instanceName == "" {
		instanceName = fmt.Sprintf("latch-broker-%d", info.Port)
	}

	server, err := zeroconf.Register(
		instanceName,
		ServiceTypeBroker,
		Domain,
		info.Port,
		encodeTXT(info),
		a.interfaces(),
	)
	if err != nil {
		return fmt.Errorf("registering mDNS service: %w", err)
	}
	a.server = server
	return nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// interfaces returns the interface restriction, nil for all.
func (a *Advertiser) interfaces() []net.Interface {
	if a.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
