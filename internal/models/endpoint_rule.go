package models

import (
	"regexp"
	"time"
)

// EndpointRule describes one cacheable Cloudflare API endpoint.
// Pattern must be anchored at the start of the URL; KeyTemplate is expanded
// with the pattern's capture groups (e.g. ${zone}).
type EndpointRule struct {
	Name        string
	Pattern     *regexp.Regexp
	KeyTemplate string
	TTL         time.Duration
}

// Match returns cache information when url matches the rule
func (r *EndpointRule) Match(url string) (CacheInfo, bool) {
	loc := r.Pattern.FindStringSubmatchIndex(url)
	if loc == nil || loc[0] != 0 {
		return CacheInfo{}, false
	}

	key := r.Pattern.ExpandString(nil, r.KeyTemplate, url, loc)
	return CacheInfo{
		Endpoint: r.Name,
		Key:      string(key),
		TTL:      r.TTL,
	}, true
}
