package httpserver

import (
	"net/http"
	"strings"
)

// handleLookup checks the read-through cache for a request
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req CacheRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.Method == "" || req.URL == "" {
		s.writeErrorResponse(w, "Missing required fields: method, url", http.StatusBadRequest)
		return
	}

	result := s.cache.Lookup(r.Context(), strings.ToUpper(req.Method), req.URL)

	s.writeResponse(w, &CacheResponse{
		Success:     true,
		Cacheable:   result.Key != "",
		Endpoint:    result.Info.Endpoint,
		Key:         result.Key,
		TTL:         int(result.Info.TTL.Seconds()),
		CacheStatus: result.Status,
		CacheLevel:  result.Level,
		Response:    result.Record,
	})
}

// handleRecord stores a response observed by the caller
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req CacheRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.Method == "" || req.URL == "" || req.Response == nil {
		s.writeErrorResponse(w, "Missing required fields: method, url, response", http.StatusBadRequest)
		return
	}
	if req.Response.Headers == nil {
		req.Response.Headers = http.Header{}
	}

	stored := s.cache.Record(r.Context(), strings.ToUpper(req.Method), req.URL, req.Response)

	s.writeResponse(w, &CacheResponse{
		Success: true,
		Stored:  stored,
	})
}

// handleCacheInfo reports how a URL would be cached
func (s *Server) handleCacheInfo(w http.ResponseWriter, r *http.Request) {
	var req CacheRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.URL == "" {
		s.writeErrorResponse(w, "Missing required field: url", http.StatusBadRequest)
		return
	}

	info, ok := s.cache.Classify(req.URL)
	if !ok {
		s.writeResponse(w, &CacheResponse{Success: true, Cacheable: false})
		return
	}

	s.writeResponse(w, &CacheResponse{
		Success:   true,
		Cacheable: true,
		Endpoint:  info.Endpoint,
		Key:       info.Key,
		TTL:       int(info.TTL.Seconds()),
	})
}
