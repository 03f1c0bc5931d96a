package httpserver

import (
	"io"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var zoneID = regexp.MustCompile(`^[0-9a-f]{32}$`)

// forwardedRequestHeaders are copied from the caller to Cloudflare
var forwardedRequestHeaders = []string{"Authorization", "Content-Type", "Accept", "X-Auth-Email", "X-Auth-Key"}

// hopHeaders are not copied back to the caller
var hopHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Content-Length":    true,
}

// handlePurge queues URLs for a batched purge
func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	var req PurgeRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if !zoneID.MatchString(req.Zone) {
		s.writeErrorResponse(w, "Invalid zone: expected 32 lowercase hex characters", http.StatusBadRequest)
		return
	}
	if len(req.URLs) == 0 {
		s.writeErrorResponse(w, "Missing required field: urls", http.StatusBadRequest)
		return
	}

	urls := s.purges.Add(r.Context(), req.Zone, req.URLs...)

	s.writeResponse(w, &PurgeResponse{
		Success: true,
		URLs:    urls,
		Pending: s.purges.Pending(req.Zone),
	})
}

// handleCloudflareProxy forwards a request to the Cloudflare API through the
// hooked client, so cached GETs are served locally and APO bodies patched
func (s *Server) handleCloudflareProxy(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			s.writeErrorResponse(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		if len(body) == 0 {
			body = nil
		}
	}

	header := http.Header{}
	for _, name := range forwardedRequestHeaders {
		if v := r.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}

	resp, err := s.upstream.Do(r.Context(), r.Method, path, body, header)
	if err != nil {
		s.logger.Error("Cloudflare proxy request failed", zap.String("path", path), zap.Error(err))
		s.writeErrorResponse(w, "Upstream request failed", http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	for k, vs := range resp.Header {
		if hopHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn("Failed to copy upstream response", zap.String("path", path), zap.Error(err))
	}
}
