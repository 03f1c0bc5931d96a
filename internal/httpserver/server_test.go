package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"go-cf-cache/internal/cache/l1"
	"go-cf-cache/internal/cache/multi"
	"go-cf-cache/internal/cache/service"
	"go-cf-cache/internal/cache_rules"
	"go-cf-cache/internal/cloudflare"
	"go-cf-cache/internal/config"
	"go-cf-cache/internal/interfaces"
	"go-cf-cache/internal/interfaces/mock"
	"go-cf-cache/internal/models"
	"go-cf-cache/internal/purge"
	"go-cf-cache/internal/transport"
)

const (
	testZone = "0123456789abcdef0123456789abcdef"
	httpsURL = "https://api.cloudflare.com/client/v4/zones/" + testZone + "/settings/always_use_https"
)

// fakeCloudflare answers API calls locally and counts them
type fakeCloudflare struct {
	calls atomic.Int32
	last  *http.Request
	body  []byte
}

func (f *fakeCloudflare) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls.Add(1)
	f.last = req
	if req.Body != nil {
		f.body, _ = io.ReadAll(req.Body)
	}
	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}, "Cf-Ray": []string{"abc"}},
		Body:       io.NopCloser(strings.NewReader(`{"success":true,"errors":[],"result":{"value":"on"}}`)),
		Request:    req,
	}, nil
}

type testServer struct {
	server   *Server
	router   http.Handler
	upstream *fakeCloudflare
	purger   *mock.MockPurger
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	ctrl := gomock.NewController(t)

	bc, err := l1.NewBigCache(&config.L1Config{Enabled: true, Size: 8}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bc.Close() })

	rules, err := cache_rules.LoadDefaultCacheRulesConfig(logger)
	require.NoError(t, err)
	store := multi.NewMultiCache([]interfaces.Cache{bc}, false, logger)
	cache := service.NewHTTPCache(store, cache_rules.NewClassifier(logger, rules), logger)

	upstream := &fakeCloudflare{}
	rt := transport.New(upstream, logger)
	cache.Register(rt)
	client := cloudflare.NewClient(&http.Client{Transport: rt}, config.DefaultCloudflareAPIURL, "server-token", logger)

	purger := mock.NewMockPurger(ctrl)
	batcher := purge.NewBatcher(purger, "www.example.com", 30, time.Hour, logger)

	s := NewServer(cache, batcher, client, logger)
	return &testServer{server: s, router: s.createRouter(), upstream: upstream, purger: purger}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeCacheResponse(t *testing.T, w *httptest.ResponseRecorder) CacheResponse {
	t.Helper()
	var resp CacheResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestServer_LookupAndRecord(t *testing.T) {
	ts := setupServer(t)

	// Miss before anything is recorded
	w := ts.do(t, http.MethodPost, "/cache/lookup", CacheRequest{Method: "GET", URL: httpsURL})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeCacheResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, models.CacheStatusMiss, resp.CacheStatus)
	assert.Equal(t, "cloudflare-helper:cloudflare:settings:"+testZone+":always_use_https", resp.Key)
	assert.Equal(t, 3600, resp.TTL)
	assert.Nil(t, resp.Response)

	// Record a successful response
	record := &models.ResponseRecord{
		StatusCode: 200,
		Message:    "OK",
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(`{"success":true,"result":{"value":"off"}}`),
	}
	w = ts.do(t, http.MethodPost, "/cache/record", CacheRequest{Method: "GET", URL: httpsURL, Response: record})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeCacheResponse(t, w).Stored)

	// Hit afterwards
	w = ts.do(t, http.MethodPost, "/cache/lookup", CacheRequest{Method: "get", URL: httpsURL})
	resp = decodeCacheResponse(t, w)
	assert.Equal(t, models.CacheStatusHit, resp.CacheStatus)
	assert.Equal(t, models.CacheLevelL1, resp.CacheLevel)
	require.NotNil(t, resp.Response)
	assert.Equal(t, record.Body, resp.Response.Body)
}

func TestServer_Lookup_Bypass(t *testing.T) {
	ts := setupServer(t)

	tests := []CacheRequest{
		{Method: "DELETE", URL: httpsURL},
		{Method: "GET", URL: "https://api.cloudflare.com/client/v4/zones/" + testZone + "/dns_records"},
	}

	for _, req := range tests {
		t.Run(req.Method+" "+req.URL, func(t *testing.T) {
			resp := decodeCacheResponse(t, ts.do(t, http.MethodPost, "/cache/lookup", req))
			assert.Equal(t, models.CacheStatusBypass, resp.CacheStatus)
			assert.False(t, resp.Cacheable)
		})
	}
}

func TestServer_Record_Non200(t *testing.T) {
	ts := setupServer(t)

	record := &models.ResponseRecord{StatusCode: 400, Body: []byte(`{"success":false}`)}
	w := ts.do(t, http.MethodPost, "/cache/record", CacheRequest{Method: "GET", URL: httpsURL, Response: record})

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeCacheResponse(t, w).Stored)

	resp := decodeCacheResponse(t, ts.do(t, http.MethodPost, "/cache/lookup", CacheRequest{Method: "GET", URL: httpsURL}))
	assert.Equal(t, models.CacheStatusMiss, resp.CacheStatus)
}

func TestServer_BadRequests(t *testing.T) {
	ts := setupServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"lookup invalid json", "/cache/lookup", `{`},
		{"lookup missing url", "/cache/lookup", `{"method":"GET"}`},
		{"record missing response", "/cache/record", `{"method":"GET","url":"` + httpsURL + `"}`},
		{"info missing url", "/cache/info", `{}`},
		{"purge bad zone", "/purge", `{"zone":"abc","urls":["https://a/"]}`},
		{"purge no urls", "/purge", `{"zone":"` + testZone + `","urls":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestServer_CacheInfo(t *testing.T) {
	ts := setupServer(t)

	resp := decodeCacheResponse(t, ts.do(t, http.MethodPost, "/cache/info",
		CacheRequest{URL: "https://api.cloudflare.com/client/v4/zones/" + testZone + "/pagerules?status=active"}))
	assert.True(t, resp.Cacheable)
	assert.Equal(t, "pagerules", resp.Endpoint)
	assert.Equal(t, "cloudflare:pagerules:"+testZone+":active", resp.Key)
	assert.Equal(t, 600, resp.TTL)

	resp = decodeCacheResponse(t, ts.do(t, http.MethodPost, "/cache/info", CacheRequest{URL: "https://example.com/"}))
	assert.True(t, resp.Success)
	assert.False(t, resp.Cacheable)
}

func TestServer_Purge(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodPost, "/purge", PurgeRequest{
		Zone: testZone,
		URLs: []string{"https://origin.example.com/a", "https://origin.example.com/a", "/relative"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp PurgeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"https://www.example.com/a", "https://www.example.com/a", "/relative"}, resp.URLs)
	assert.Equal(t, 2, resp.Pending)

	ts.purger.EXPECT().PurgeByURL(gomock.Any(), testZone, []string{"https://www.example.com/a", "/relative"}).Return(nil)
	require.NoError(t, ts.server.purges.Flush(context.Background()))
}

func TestServer_CloudflareProxy_CachesGET(t *testing.T) {
	ts := setupServer(t)
	path := "/cf/zones/" + testZone + "/settings/always_use_https"

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"errors":[],"result":{"value":"on"}}`, w.Body.String())
		if i == 1 {
			assert.Equal(t, "HIT", w.Header().Get(service.HeaderCacheStatus))
		}
	}

	assert.Equal(t, int32(1), ts.upstream.calls.Load())
	assert.Equal(t, "Bearer server-token", ts.upstream.last.Header.Get("Authorization"))
}

func TestServer_CloudflareProxy_ForwardsBodyAndQuery(t *testing.T) {
	ts := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/cf/zones/"+testZone+"/purge_cache?x=1", strings.NewReader(`{"files":["a"]}`))
	req.Header.Set("Authorization", "Bearer caller")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Header().Get("Cf-Ray"))
	assert.Equal(t, "/client/v4/zones/"+testZone+"/purge_cache", ts.upstream.last.URL.Path)
	assert.Equal(t, "x=1", ts.upstream.last.URL.RawQuery)
	assert.Equal(t, "Bearer caller", ts.upstream.last.Header.Get("Authorization"))
	assert.Equal(t, `{"files":["a"]}`, string(ts.upstream.body))
}

func TestServer_HandleHealth(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])

	ts.server.AddHealthCheck("keydb", func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	w = ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
}

func TestServer_Metrics(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestServer_MethodNotAllowed(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodGet, "/cache/lookup", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMetricsServer(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ms := NewMetricsServer(l.Addr().String(), zaptest.NewLogger(t))
	done := make(chan error, 1)
	go func() { done <- ms.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, ms.Stop(context.Background()))
	assert.NoError(t, <-done)
}

func TestServer_UnixSocketCleanShutdown(t *testing.T) {
	ts := setupServer(t)

	// Unix socket paths are length-limited, so avoid the long t.TempDir path
	dir, err := os.MkdirTemp("", "cfc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	socketPath := filepath.Join(dir, "s.sock")

	done := make(chan error, 1)
	go func() { done <- ts.server.StartUnixSocket(socketPath) }()

	client := &http.Client{Transport: &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}}

	require.Eventually(t, func() bool {
		resp, err := client.Get("http://unix/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ts.server.Stop(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_StopBeforeStart(t *testing.T) {
	ts := setupServer(t)
	assert.NoError(t, ts.server.Stop(context.Background()))
}
