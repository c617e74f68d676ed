package internal

import "net/http"

// HeaderTransport is a RoundTripper that stamps default headers onto
// every outgoing request. crates.io rejects requests without a
// User-Agent that identifies the client, so the command wires one in
// through this transport.
type HeaderTransport struct {
	Base    http.RoundTripper
	Headers http.Header
}

func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for key, values := range t.Headers {
		for _, value := range values {
			if req.Header.Get(key) == "" {
				req.Header.Add(key, value)
			}
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
