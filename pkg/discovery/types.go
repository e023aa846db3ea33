package discovery

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// ServiceTypeBroker is the DNS-SD service type for latch brokers.
	ServiceTypeBroker = "_latchbroker._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// ProtocolRevision is advertised in the TXT record and checked by
	// browsers so incompatible brokers are skipped.
	ProtocolRevision = 1

	// DefaultBrowseTimeout bounds FindBroker when the caller sets none.
	DefaultBrowseTimeout = 10 * time.Second
)

// TXT record keys.
const (
	txtKeyProtocol = "pv"
	txtKeyName     = "nm"
)

// BrokerInfo is the advertised description of a broker.
type BrokerInfo struct {
	// InstanceName is the DNS-SD instance name, unique per broker.
	InstanceName string

	// Port the broker listens on.
	Port int

	// Name is a human-readable label shown during provisioning.
	Name string
}

// BrokerService is a discovered broker.
type BrokerService struct {
	InstanceName string
	Host         string
	Port         int
	Addresses    []string
	Name         string
}

// Endpoint returns the first usable "host:port" address.
func (s *BrokerService) Endpoint() string {
	if len(s.Addresses) > 0 {
		return fmt.Sprintf("%s:%d", s.Addresses[0], s.Port)
	}
	return fmt.Sprintf("%s:%d", strings.TrimSuffix(s.Host, "."), s.Port)
}

// encodeTXT builds the TXT record strings for an advertisement.
func encodeTXT(info BrokerInfo) []string {
	txt := []string{
		fmt.Sprintf("%s=%d", txtKeyProtocol, ProtocolRevision),
	}
	if info.Name != "" {
		txt = append(txt, fmt.Sprintf("%s=%s", txtKeyName, info.Name))
	}
	return txt
}

// decodeTXT parses TXT record strings. The name is optional; a missing
// or mismatched protocol revision is an error.
func decodeTXT(txt []string) (name string, err error) {
	rev := -1
	for _, record := range txt {
		key, value, ok := strings.Cut(record, "=")
		if !ok {
			continue
		}
		switch key {
		case txtKeyProtocol:
			if rev, err = strconv.Atoi(value); err != nil {
				return "", fmt.Errorf("bad protocol revision %q", value)
			}
		case txtKeyName:
			name = value
		}
	}
	if rev != ProtocolRevision {
		return "", fmt.Errorf("unsupported protocol revision %d", rev)
	}
	return name, nil
}
