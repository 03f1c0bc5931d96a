package transport

import (
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"go-cf-cache/internal/metrics"
)

// RequestHook may rewrite an outgoing request. Returning an error aborts the call.
type RequestHook func(req *http.Request) error

// PreRequestHook may answer a request without contacting the upstream.
// Returning ok=true short-circuits the call with resp.
type PreRequestHook func(req *http.Request) (resp *http.Response, ok bool)

// ResponseHook observes a response received from the upstream
type ResponseHook func(req *http.Request, resp *http.Response)

// Ensure RoundTripper implements http.RoundTripper
var _ http.RoundTripper = (*RoundTripper)(nil)

// RoundTripper wraps a base transport and dispatches hooks around each call.
// Order: request hooks, pre-request hooks (first short-circuit wins), base
// round trip, response hooks. Response hooks do not see short-circuited calls.
type RoundTripper struct {
	base   http.RoundTripper
	logger *zap.Logger

	mu              sync.RWMutex
	requestHooks    []RequestHook
	preRequestHooks []PreRequestHook
	responseHooks   []ResponseHook
}

// New creates a RoundTripper around base. A nil base uses http.DefaultTransport.
func New(base http.RoundTripper, logger *zap.Logger) *RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RoundTripper{
		base:   base,
		logger: logger,
	}
}

// OnRequest registers a hook that may rewrite outgoing requests
func (rt *RoundTripper) OnRequest(hook RequestHook) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.requestHooks = append(rt.requestHooks, hook)
}

// OnPreRequest registers a hook that may short-circuit outgoing requests
func (rt *RoundTripper) OnPreRequest(hook PreRequestHook) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.preRequestHooks = append(rt.preRequestHooks, hook)
}

// OnResponse registers a hook that observes upstream responses
func (rt *RoundTripper) OnResponse(hook ResponseHook) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.responseHooks = append(rt.responseHooks, hook)
}

// RoundTrip implements http.RoundTripper
func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.RLock()
	requestHooks := rt.requestHooks
	preRequestHooks := rt.preRequestHooks
	responseHooks := rt.responseHooks
	rt.mu.RUnlock()

	if len(requestHooks) > 0 {
		// Hooks work on a copy; the caller's request must stay untouched
		req = req.Clone(req.Context())
		for _, hook := range requestHooks {
			if err := hook(req); err != nil {
				closeBody(req)
				return nil, fmt.Errorf("request hook failed: %w", err)
			}
		}
	}

	for _, hook := range preRequestHooks {
		if resp, ok := hook(req); ok && resp != nil {
			closeBody(req)
			if resp.Request == nil {
				resp.Request = req
			}
			rt.logger.Debug("Request short-circuited",
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()))
			return resp, nil
		}
	}

	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		metrics.RecordUpstreamRequest(req.Method, 0)
		return nil, err
	}
	metrics.RecordUpstreamRequest(req.Method, resp.StatusCode)

	for _, hook := range responseHooks {
		hook(req, resp)
	}

	return resp, nil
}

// closeBody releases a request body the base transport will never consume
func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
