package discovery

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// ErrNoBroker means browsing finished without finding a compatible broker.
var ErrNoBroker = errors.New("no broker found")

// Browser locates latch brokers over mDNS.
type Browser struct {
	// Interface restricts browsing to one network interface.
	// Empty means all interfaces.
	Interface string
}

// Browse streams discovered brokers until ctx is canceled. Entries are
// deduplicated by instance name; brokers with an incompatible protocol
// revision are skipped.
func (b *Browser) Browse(ctx context.Context) (<-chan *BrokerService, error) {
	out := make(chan *BrokerService)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		seen := make(map[string]bool)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToBroker(entry)
				if svc == nil || seen[svc.InstanceName] {
					continue
				}
				seen[svc.InstanceName] = true
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}
			case <-removed:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceTypeBroker, Domain, entries, removed, b.options()...)
	}()

	return out, nil
}

// FindBroker returns the first compatible broker, or ErrNoBroker after
// the timeout (DefaultBrowseTimeout when zero).
func (b *Browser) FindBroker(ctx context.Context, timeout time.Duration) (*BrokerService, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	found, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	select {
	case svc, ok := <-found:
		if !ok || svc == nil {
			return nil, ErrNoBroker
		}
		return svc, nil
	case <-ctx.Done():
		return nil, ErrNoBroker
	}
}

func (b *Browser) options() []zeroconf.ClientOption {
	if b.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(b.Interface)
	if err != nil {
		return nil
	}
	return []zeroconf.ClientOption{zeroconf.SelectIfaces([]net.Interface{*iface})}
}

// entryToBroker converts a zeroconf entry, returning nil for
// incompatible services.
func entryToBroker(entry *zeroconf.ServiceEntry) *BrokerService {
	name, err := decodeTXT(entry.Text)
	if err != nil {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &BrokerService{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         entry.Port,
		Addresses:    addrs,
		Name:         name,
	}
}
