package paymail

import (
	"fmt"
	"net"
	"sort"
	"strings"
)

// DNSResolver defines the interface for DNS lookups, so tests can mock
// resolution.
type DNSResolver interface {
	// LookupSRV looks up SRV records for the given service, proto, and name.
	LookupSRV(service, proto, name string) (string, []*net.SRV, error)
}

// defaultDNSResolver wraps the standard net package DNS functions.
type defaultDNSResolver struct{}

func (d *defaultDNSResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return net.LookupSRV(service, proto, name)
}

// DefaultDNSResolver is the production DNS resolver using the net package.
var DefaultDNSResolver DNSResolver = &defaultDNSResolver{}

// SRVService is the SRV service label for payout host discovery
// (_bsvalias._tcp.{domain}).
const SRVService = "bsvalias"

// ResolveHost returns the payout service host:port for a domain, preferring
// SRV records sorted by priority then weight. Domains without SRV records
// fall back to domain:443.
func ResolveHost(domain string, resolver DNSResolver) (string, error) {
	if domain == "" {
		return "", fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}
	if resolver == nil {
		resolver = DefaultDNSResolver
	}

	_, addrs, err := resolver.LookupSRV(SRVService, "tcp", domain)
	if err != nil || len(addrs) == 0 {
		return domain + ":443", nil
	}

	sort.Slice(addrs, func(i, j int) bool {
		if addrs[i].Priority != addrs[j].Priority {
			return addrs[i].Priority < addrs[j].Priority
		}
		return addrs[i].Weight > addrs[j].Weight
	})

	host := strings.TrimSuffix(addrs[0].Target, ".")
	return fmt.Sprintf("%s:%d", host, addrs[0].Port), nil
}
