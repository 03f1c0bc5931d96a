package cloudflare

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"
)

const testZone = "0123456789abcdef0123456789abcdef"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.Client(), server.URL+"/client/v4/", "test-token", zaptest.NewLogger(t))
}

func TestClient_AlwaysUseHTTPS(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/client/v4/zones/"+testZone+"/settings/always_use_https", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"errors":[],"messages":[],"result":{"id":"always_use_https","value":"on","editable":true}}`))
	})

	value, err := client.AlwaysUseHTTPS(context.Background(), testZone)

	require.NoError(t, err)
	assert.Equal(t, "on", value)
}

func TestClient_PageRules(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/client/v4/zones/"+testZone+"/pagerules", r.URL.Path)
		assert.Equal(t, "active", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"success":true,"errors":[],"result":[
			{"id":"r1","status":"active","priority":2,"targets":[{"target":"url","constraint":{"operator":"matches","value":"*example.com/images/*"}}]},
			{"id":"r2","status":"active","priority":1,"targets":[]}
		]}`))
	})

	rules, err := client.PageRules(context.Background(), testZone, "active")

	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, PageRule{ID: "r1", Status: "active", Priority: 2, Targets: []string{"*example.com/images/*"}}, rules[0])
	assert.Equal(t, "r2", rules[1].ID)
	assert.Empty(t, rules[1].Targets)
}

func TestClient_PurgeByURL(t *testing.T) {
	var gotBody []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/client/v4/zones/"+testZone+"/purge_cache", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"success":true,"errors":[],"result":{"id":"abc"}}`))
	})

	err := client.PurgeByURL(context.Background(), testZone, []string{"https://www.example.com/a", "https://www.example.com/b"})

	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.example.com/a", "https://www.example.com/b"}, []string{
		gjson.GetBytes(gotBody, "files.0").String(),
		gjson.GetBytes(gotBody, "files.1").String(),
	})
}

func TestClient_PurgeByURL_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	assert.NoError(t, client.PurgeByURL(context.Background(), testZone, nil))
}

func TestClient_UpdateAPO(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.True(t, gjson.GetBytes(body, "value.enabled").Bool())
		assert.Equal(t, "www.example.com", gjson.GetBytes(body, "value.hostnames.0").String())
		_, _ = w.Write([]byte(`{"success":true,"errors":[],"result":{}}`))
	})

	assert.NoError(t, client.UpdateAPO(context.Background(), testZone, true, []string{"www.example.com"}))
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":9109,"message":"Invalid access token"}],"result":null}`))
	})

	_, err := client.AlwaysUseHTTPS(context.Background(), testZone)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, []int64{9109}, apiErr.Codes)
	assert.Equal(t, []string{"Invalid access token"}, apiErr.Messages)
	assert.Contains(t, err.Error(), "Invalid access token")
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
		want    string
	}{
		{"success", 200, `{"success":true,"result":{"value":"off"}}`, false, `{"value":"off"}`},
		{"success false", 200, `{"success":false,"errors":[{"code":1,"message":"bad"}]}`, true, ""},
		{"missing success", 200, `{"result":{}}`, true, ""},
		{"error status with success", 500, `{"success":true,"result":{}}`, true, ""},
		{"not json", 502, `<html>Bad Gateway</html>`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseEnvelope(tt.status, []byte(tt.body))
			if tt.wantErr {
				var apiErr *APIError
				assert.True(t, errors.As(err, &apiErr))
				assert.Equal(t, tt.status, apiErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Raw)
		})
	}
}

func TestClient_Do_KeepsCallerAuthorization(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer caller-token", r.Header.Get("Authorization"))
		assert.Equal(t, "yes", r.Header.Get("X-Extra"))
		_, _ = w.Write([]byte(`{}`))
	})

	header := http.Header{}
	header.Set("Authorization", "Bearer caller-token")
	header.Set("X-Extra", "yes")

	resp, err := client.Do(context.Background(), http.MethodGet, "/zones", nil, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
}

func TestClient_URL(t *testing.T) {
	client := NewClient(http.DefaultClient, "https://api.cloudflare.com/client/v4/", "", zaptest.NewLogger(t))

	assert.Equal(t, "https://api.cloudflare.com/client/v4/zones/"+testZone+"/pagerules?status=active",
		client.URL("/zones/"+testZone+"/pagerules?status=active"))
}
