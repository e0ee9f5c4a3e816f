package paymail

import "errors"

var (
	// ErrInvalidHandle indicates the handle is not a valid alias@domain.
	ErrInvalidHandle = errors.New("paymail: invalid handle")

	// ErrDNSLookupFailed indicates a DNS SRV lookup failed.
	ErrDNSLookupFailed = errors.New("paymail: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the resolver did not authenticate
	// the response.
	ErrDNSSECValidationFailed = errors.New("paymail: DNSSEC validation failed")

	// ErrCapabilityDiscovery indicates .well-known/bsvalias fetch failed.
	ErrCapabilityDiscovery = errors.New("paymail: capability discovery failed")

	// ErrDestinationResolution indicates the payment destination endpoint
	// returned an unusable response.
	ErrDestinationResolution = errors.New("paymail: destination resolution failed")
)
