// Package paymail resolves holder handles (alias@domain) to payout
// destinations: SRV-based host discovery (optionally DNSSEC-validated),
// capability discovery over HTTPS, and payment-destination resolution.
package paymail

import (
	"fmt"
	"strings"
)

// Handle is a parsed alias@domain payout identity.
type Handle struct {
	Alias  string
	Domain string
}

// ParseHandle splits and validates an alias@domain handle.
func ParseHandle(s string) (Handle, error) {
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return Handle{}, fmt.Errorf("%w: %q", ErrInvalidHandle, s)
	}
	h := Handle{
		Alias:  strings.ToLower(s[:at]),
		Domain: strings.ToLower(s[at+1:]),
	}
	if strings.ContainsAny(h.Alias, " /?#") || !strings.Contains(h.Domain, ".") {
		return Handle{}, fmt.Errorf("%w: %q", ErrInvalidHandle, s)
	}
	return h, nil
}

// String returns the canonical alias@domain form.
func (h Handle) String() string {
	return h.Alias + "@" + h.Domain
}
