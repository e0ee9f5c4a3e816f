package paymail

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MaxResponseSize bounds how much of a payout server response is read.
const MaxResponseSize = 1 << 20

// brfcPaymentDestination is the BRFC ID of the P2P payment destination
// capability.
const brfcPaymentDestination = "2a40af698840"

// PostClient is the HTTP surface destination resolution needs: capability
// discovery is a GET, destination resolution a POST.
type PostClient interface {
	Get(url string) (*http.Response, error)
	Post(url, contentType string, body io.Reader) (*http.Response, error)
}

// DefaultPostClient is the production client with a 30-second timeout.
var DefaultPostClient PostClient = &http.Client{Timeout: 30 * time.Second}

// Output is one payout destination output: a locking script and the portion
// of the payout it receives.
type Output struct {
	Script   []byte
	Satoshis uint64
}

// capabilitiesResponse is the JSON structure of .well-known/bsvalias.
type capabilitiesResponse struct {
	Capabilities map[string]interface{} `json:"capabilities"`
}

// destinationRequest is the body POSTed to the payment destination endpoint.
type destinationRequest struct {
	Satoshis uint64 `json:"satoshis"`
	Purpose  string `json:"purpose"`
}

// destinationResponse is the JSON envelope returned by the endpoint.
type destinationResponse struct {
	Outputs []struct {
		Script   string `json:"script"`
		Satoshis uint64 `json:"satoshis"`
	} `json:"outputs"`
}

// DiscoverDestinationURL fetches .well-known/bsvalias from the handle's
// payout host and returns the payment-destination URL template.
func DiscoverDestinationURL(domain string, client PostClient, resolver DNSResolver) (string, error) {
	if client == nil {
		client = DefaultPostClient
	}
	host, err := ResolveHost(domain, resolver)
	if err != nil {
		return "", err
	}
	host = strings.TrimSuffix(host, ":443")

	wellKnown := "https://" + host + "/.well-known/bsvalias"
	resp, err := client.Get(wellKnown)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: %v", ErrCapabilityDiscovery, wellKnown, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: GET %s returned status %d", ErrCapabilityDiscovery, wellKnown, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrCapabilityDiscovery, err)
	}

	var caps capabilitiesResponse
	if err := json.Unmarshal(body, &caps); err != nil {
		return "", fmt.Errorf("%w: parsing JSON: %v", ErrCapabilityDiscovery, err)
	}

	for key, val := range caps.Capabilities {
		urlStr, ok := val.(string)
		if !ok {
			continue
		}
		if key == brfcPaymentDestination || strings.Contains(key, "paymentDestination") {
			return urlStr, nil
		}
	}
	return "", fmt.Errorf("%w: no payment destination capability for %s", ErrCapabilityDiscovery, domain)
}

// ResolvePayoutOutputs resolves a handle to the locking scripts a payout of
// amount satoshis must be split across, using the default HTTP client and
// DNS resolver.
func ResolvePayoutOutputs(handle string, amount uint64) ([]Output, error) {
	return ResolvePayoutOutputsWith(handle, amount, DefaultPostClient, DefaultDNSResolver)
}

// ResolvePayoutOutputsWith resolves payout outputs with the provided client
// and resolver.
func ResolvePayoutOutputsWith(handle string, amount uint64, client PostClient, resolver DNSResolver) ([]Output, error) {
	h, err := ParseHandle(handle)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: zero amount", ErrDestinationResolution)
	}
	if client == nil {
		client = DefaultPostClient
	}

	tmpl, err := DiscoverDestinationURL(h.Domain, client, resolver)
	if err != nil {
		return nil, err
	}

	destURL := strings.ReplaceAll(tmpl, "{alias}", url.PathEscape(h.Alias))
	destURL = strings.ReplaceAll(destURL, "{domain.tld}", url.PathEscape(h.Domain))

	reqBody, err := json.Marshal(destinationRequest{Satoshis: amount, Purpose: "payout"})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrDestinationResolution, err)
	}

	resp, err := client.Post(destURL, "application/json", strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %v", ErrDestinationResolution, destURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: POST %s returned status %d", ErrDestinationResolution, destURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrDestinationResolution, err)
	}

	var destResp destinationResponse
	if err := json.Unmarshal(body, &destResp); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", ErrDestinationResolution, err)
	}
	if len(destResp.Outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs in response", ErrDestinationResolution)
	}

	outputs := make([]Output, len(destResp.Outputs))
	var total uint64
	for i, o := range destResp.Outputs {
		script, err := hex.DecodeString(o.Script)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid output script hex: %v", ErrDestinationResolution, err)
		}
		if len(script) == 0 {
			return nil, fmt.Errorf("%w: empty output script", ErrDestinationResolution)
		}
		outputs[i] = Output{Script: script, Satoshis: o.Satoshis}
		total += o.Satoshis
	}
	if total != amount {
		return nil, fmt.Errorf("%w: outputs total %d, want %d", ErrDestinationResolution, total, amount)
	}

	return outputs, nil
}
