package paymail

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// defaultUpstream is the default recursive resolver for DNSSEC queries.
	defaultUpstream = "8.8.8.8:53"

	dnssecTimeout = 10 * time.Second
	edns0BufSize  = 4096
)

// DNSSECResolver implements DNSResolver with DNSSEC validation. It relies on
// the upstream recursive resolver to validate and checks the AD
// (Authenticated Data) flag in responses, so a forged SRV record cannot
// redirect payouts.
type DNSSECResolver struct {
	// Upstream is the recursive resolver address (e.g., "8.8.8.8:53").
	Upstream string
}

// NewDNSSECResolver creates a DNSSECResolver, defaulting to 8.8.8.8:53.
func NewDNSSECResolver(upstream string) *DNSSECResolver {
	if upstream == "" {
		upstream = defaultUpstream
	}
	return &DNSSECResolver{Upstream: upstream}
}

// LookupSRV looks up SRV records with DNSSEC validation. The first return
// value is always empty; miekg/dns does not return a canonical name the way
// net.LookupSRV does.
func (r *DNSSECResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	qname := dns.Fqdn(fmt.Sprintf("_%s._%s.%s", service, proto, name))

	msg := new(dns.Msg)
	msg.SetQuestion(qname, dns.TypeSRV)
	msg.RecursionDesired = true
	msg.SetEdns0(edns0BufSize, true) // DO (DNSSEC OK) flag

	client := &dns.Client{Timeout: dnssecTimeout}
	resp, _, err := client.Exchange(msg, r.Upstream)
	if err != nil {
		return "", nil, fmt.Errorf("%w: query %s SRV: %w", ErrDNSLookupFailed, qname, err)
	}

	if resp.Rcode != dns.RcodeSuccess && resp.Rcode != dns.RcodeNameError {
		return "", nil, fmt.Errorf("%w: query %s SRV: rcode %s",
			ErrDNSLookupFailed, qname, dns.RcodeToString[resp.Rcode])
	}

	// Require the AD flag set by the validating recursive resolver.
	if !resp.AuthenticatedData {
		return "", nil, fmt.Errorf("%w: AD flag not set for %s SRV", ErrDNSSECValidationFailed, qname)
	}

	var srvs []*net.SRV
	for _, rr := range resp.Answer {
		if srv, ok := rr.(*dns.SRV); ok {
			srvs = append(srvs, &net.SRV{
				Target:   strings.TrimSuffix(srv.Target, "."),
				Port:     srv.Port,
				Priority: srv.Priority,
				Weight:   srv.Weight,
			})
		}
	}

	if len(srvs) == 0 {
		return "", nil, fmt.Errorf("%w: no SRV records for %s", ErrDNSLookupFailed, qname)
	}

	return "", srvs, nil
}
