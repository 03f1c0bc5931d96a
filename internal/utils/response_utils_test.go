package utils

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cf-cache/internal/models"
)

func newResponse(status string, code int, body string, headers http.Header) *http.Response {
	if headers == nil {
		headers = http.Header{}
	}
	return &http.Response{
		Status:     status,
		StatusCode: code,
		Header:     headers,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestRecordFromResponse(t *testing.T) {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Add("Set-Cookie", "a=1")
	headers.Add("Set-Cookie", "b=2")
	headers.Set("Content-Disposition", `attachment; filename="rules.json"`)

	resp := newResponse("200 OK", 200, `{"success":true}`, headers)

	rec, err := RecordFromResponse(resp)
	require.NoError(t, err)

	assert.Equal(t, 200, rec.StatusCode)
	assert.Equal(t, "OK", rec.Message)
	assert.Equal(t, "application/json", rec.Headers.Get("Content-Type"))
	assert.Equal(t, []byte(`{"success":true}`), rec.Body)
	assert.Equal(t, []string{"a=1", "b=2"}, rec.Cookies)
	assert.Equal(t, "rules.json", rec.Filename)

	// Body stays readable for the caller
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true}`, string(body))
}

func TestRecordFromResponse_HeadersAreCopied(t *testing.T) {
	resp := newResponse("200 OK", 200, "", http.Header{"X-Test": []string{"1"}})

	rec, err := RecordFromResponse(resp)
	require.NoError(t, err)

	resp.Header.Set("X-Test", "2")
	assert.Equal(t, "1", rec.Headers.Get("X-Test"))
}

func TestRecordFromResponse_Nil(t *testing.T) {
	_, err := RecordFromResponse(nil)
	assert.Error(t, err)
}

func TestRecordFromResponse_NoBody(t *testing.T) {
	resp := &http.Response{Status: "204 No Content", StatusCode: 204}

	rec, err := RecordFromResponse(resp)
	require.NoError(t, err)
	assert.Empty(t, rec.Body)
	assert.NotNil(t, rec.Headers)
	assert.Equal(t, "No Content", rec.Message)
}

func TestResponseFromRecord(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://api.cloudflare.com/client/v4/zones", nil)
	rec := &models.ResponseRecord{
		StatusCode: 200,
		Message:    "OK",
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(`{"result":[]}`),
		Cookies:    []string{"a=1"},
	}

	resp := ResponseFromRecord(rec, req)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "200 OK", resp.Status)
	assert.Equal(t, req, resp.Request)
	assert.Equal(t, int64(len(rec.Body)), resp.ContentLength)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, []string{"a=1"}, resp.Header.Values("Set-Cookie"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, rec.Body, body)

	// Record headers are not mutated
	assert.Empty(t, rec.Headers.Get("Content-Length"))
}

func TestResponseFromRecord_DefaultMessage(t *testing.T) {
	resp := ResponseFromRecord(&models.ResponseRecord{StatusCode: 404}, nil)

	assert.Equal(t, "404 Not Found", resp.Status)
	assert.NotNil(t, resp.Header)
}

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		status string
		code   int
		want   string
	}{
		{"200 OK", 200, "OK"},
		{"429 Too Many Requests", 429, "Too Many Requests"},
		{"", 500, "Internal Server Error"},
		{"418", 418, "I'm a teapot"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			resp := &http.Response{Status: tt.status, StatusCode: tt.code}
			assert.Equal(t, tt.want, StatusMessage(resp))
		})
	}
}

func TestRoundTrip_RecordSurvivesEncoding(t *testing.T) {
	resp := newResponse("200 OK", 200, `{"success":true,"result":{"value":"on"}}`,
		http.Header{"Content-Type": []string{"application/json"}})

	rec, err := RecordFromResponse(resp)
	require.NoError(t, err)

	data, err := rec.Encode()
	require.NoError(t, err)

	decoded, err := models.DecodeResponseRecord(data)
	require.NoError(t, err)

	rebuilt := ResponseFromRecord(decoded, nil)
	body, _ := io.ReadAll(rebuilt.Body)
	assert.Equal(t, `{"success":true,"result":{"value":"on"}}`, string(body))
	assert.Equal(t, 200, rebuilt.StatusCode)
}
