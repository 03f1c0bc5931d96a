package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"go-cf-cache/internal/interfaces"
)

// Ensure Client implements interfaces.Purger
var _ interfaces.Purger = (*Client)(nil)

// APIError is returned when Cloudflare answers with success=false or an error status
type APIError struct {
	StatusCode int
	Codes      []int64
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("cloudflare API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("cloudflare API error (status %d): %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// PageRule is the subset of a page rule the service reports
type PageRule struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Priority int64    `json:"priority"`
	Targets  []string `json:"targets"`
}

// Client talks to the Cloudflare v4 API through an http.Client that may
// carry the cache and APO hooks
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	logger     *zap.Logger
}

// NewClient creates a new Cloudflare API client
func NewClient(httpClient *http.Client, baseURL, apiToken string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
		logger:     logger,
	}
}

// URL returns the absolute API URL for path, e.g. "zones/<id>/pagerules"
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Do sends a request to path relative to the API root. The caller owns the response body.
// An Authorization header already present on header is kept.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, header http.Header) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Authorization") == "" && c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudflare request %s %s failed: %w", method, path, err)
	}
	return resp, nil
}

// call sends a request and returns the envelope's result
func (c *Client) call(ctx context.Context, method, path string, payload any) (gjson.Result, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := c.Do(ctx, method, path, body, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	return ParseEnvelope(resp.StatusCode, data)
}

// ParseEnvelope validates a Cloudflare response envelope and returns its result
func ParseEnvelope(statusCode int, data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, &APIError{StatusCode: statusCode, Messages: []string{"invalid JSON response"}}
	}

	if !gjson.GetBytes(data, "success").Bool() || statusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: statusCode}
		gjson.GetBytes(data, "errors").ForEach(func(_, e gjson.Result) bool {
			apiErr.Codes = append(apiErr.Codes, e.Get("code").Int())
			apiErr.Messages = append(apiErr.Messages, e.Get("message").String())
			return true
		})
		return gjson.Result{}, apiErr
	}

	return gjson.GetBytes(data, "result"), nil
}

// AlwaysUseHTTPS returns the zone's always_use_https value ("on" or "off")
func (c *Client) AlwaysUseHTTPS(ctx context.Context, zone string) (string, error) {
	result, err := c.call(ctx, http.MethodGet, "zones/"+url.PathEscape(zone)+"/settings/always_use_https", nil)
	if err != nil {
		return "", err
	}
	return result.Get("value").String(), nil
}

// PageRules lists the zone's page rules with the given status
func (c *Client) PageRules(ctx context.Context, zone, status string) ([]PageRule, error) {
	path := "zones/" + url.PathEscape(zone) + "/pagerules?status=" + url.QueryEscape(status)
	result, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	rules := make([]PageRule, 0, len(result.Array()))
	for _, r := range result.Array() {
		rule := PageRule{
			ID:       r.Get("id").String(),
			Status:   r.Get("status").String(),
			Priority: r.Get("priority").Int(),
		}
		for _, target := range r.Get("targets.#.constraint.value").Array() {
			rule.Targets = append(rule.Targets, target.String())
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// PurgeByURL purges the given files from the zone's edge cache
func (c *Client) PurgeByURL(ctx context.Context, zone string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	_, err := c.call(ctx, http.MethodPost, "zones/"+url.PathEscape(zone)+"/purge_cache", map[string]any{
		"files": urls,
	})
	if err != nil {
		return err
	}

	c.logger.Debug("Purged URLs", zap.String("zone", zone), zap.Int("count", len(urls)))
	return nil
}

// UpdateAPO sets the zone's Automatic Platform Optimization settings
func (c *Client) UpdateAPO(ctx context.Context, zone string, enabled bool, hostnames []string) error {
	if hostnames == nil {
		hostnames = []string{}
	}

	_, err := c.call(ctx, http.MethodPatch, "zones/"+url.PathEscape(zone)+"/settings/automatic_platform_optimization", map[string]any{
		"value": map[string]any{
			"enabled":   enabled,
			"cf":        enabled,
			"wordpress": enabled,
			"hostnames": hostnames,
		},
	})
	return err
}
