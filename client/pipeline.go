package client

import (
	"net/http"
)

// BeforeSend runs on every outgoing request before it reaches the transport.
// It receives a clone, so it may set headers freely.
type BeforeSend func(req *http.Request)

// AfterReceive inspects every response. Returning an error aborts the call;
// the pipeline closes the response body in that case.
type AfterReceive func(resp *http.Response) error

// RoundTripFunc adapts a function to http.RoundTripper.
type RoundTripFunc func(req *http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// Wrap composes base with one before-send and one after-receive stage.
// Either stage may be nil.
func Wrap(base http.RoundTripper, before BeforeSend, after AfterReceive) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		out := req.Clone(req.Context())
		if before != nil {
			before(out)
		}

		resp, err := base.RoundTrip(out)
		if err != nil {
			return nil, err
		}

		if after != nil {
			if err := after(resp); err != nil {
				resp.Body.Close()
				return nil, err
			}
		}
		return resp, nil
	})
}

// Before runs hooks in order.
func Before(hooks ...BeforeSend) BeforeSend {
	return func(req *http.Request) {
		for _, h := range hooks {
			if h != nil {
				h(req)
			}
		}
	}
}

// After runs hooks in order and stops at the first error.
func After(hooks ...AfterReceive) AfterReceive {
	return func(resp *http.Response) error {
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if err := h(resp); err != nil {
				return err
			}
		}
		return nil
	}
}
