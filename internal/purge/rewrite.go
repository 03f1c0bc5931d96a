package purge

import "regexp"

// authority matches the scheme and host of an absolute http(s) URL
var authority = regexp.MustCompile(`^(https?:)//[^/]+`)

// RewriteURL points an absolute http(s) URL at domain, keeping scheme, path
// and query. URLs without an http(s) scheme are returned unchanged.
func RewriteURL(url, domain string) string {
	if domain == "" {
		return url
	}
	loc := authority.FindStringSubmatchIndex(url)
	if loc == nil {
		return url
	}
	return url[loc[2]:loc[3]] + "//" + domain + url[loc[1]:]
}

// RewriteURLs applies RewriteURL to every element, returning a new slice
func RewriteURLs(urls []string, domain string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = RewriteURL(u, domain)
	}
	return out
}
