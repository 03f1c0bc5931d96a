package apo

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// settingsURL matches the APO settings endpoint of any zone
var settingsURL = regexp.MustCompile(`^https://api\.cloudflare\.com/client/v4/zones/[0-9a-f]{32}/settings/automatic_platform_optimization`)

// PatchHostnames adds domain to value.hostnames of an APO settings body when
// APO is being enabled. ok reports whether body was changed; otherwise the
// original bytes are returned.
func PatchHostnames(method, url string, body []byte, domain string) (patched []byte, ok bool) {
	if method != http.MethodPatch || len(body) == 0 || domain == "" || !settingsURL.MatchString(url) {
		return body, false
	}
	if !gjson.ValidBytes(body) {
		return body, false
	}

	if !gjson.ParseBytes(body).IsObject() {
		return body, false
	}
	if !truthy(gjson.GetBytes(body, "value.enabled")) {
		return body, false
	}

	hostnames := gjson.GetBytes(body, "value.hostnames")
	if !hostnames.IsArray() {
		return body, false
	}
	for _, h := range hostnames.Array() {
		if h.Type == gjson.String && h.Str == domain {
			return body, false
		}
	}

	if out, ok := appendToArray(body, hostnames, domain); ok {
		return out, true
	}
	return reencode(body, domain)
}

// appendToArray splices domain into the raw array at hostnames
func appendToArray(body []byte, hostnames gjson.Result, domain string) ([]byte, bool) {
	encoded, err := json.Marshal(domain)
	if err != nil {
		return body, false
	}

	start := hostnames.Index
	end := start + len(hostnames.Raw)
	if start <= 0 || end > len(body) || string(body[start:end]) != hostnames.Raw {
		return body, false
	}

	closing := bytes.LastIndexByte(body[start:end], ']') + start
	elem := encoded
	if len(hostnames.Array()) > 0 {
		elem = append([]byte{','}, encoded...)
	}

	out := make([]byte, 0, len(body)+len(elem))
	out = append(out, body[:closing]...)
	out = append(out, elem...)
	out = append(out, body[closing:]...)
	return out, true
}

// reencode appends domain by decoding and re-marshalling the whole body
func reencode(body []byte, domain string) ([]byte, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return body, false
	}
	value, ok := doc["value"].(map[string]any)
	if !ok {
		return body, false
	}
	hostnames, ok := value["hostnames"].([]any)
	if !ok {
		return body, false
	}
	value["hostnames"] = append(hostnames, domain)

	out, err := json.Marshal(doc)
	if err != nil {
		return body, false
	}
	return out, true
}

// truthy follows loose JSON truthiness: false, null, 0, "", "0" and empty
// containers are false
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != "" && r.Str != "0"
	case gjson.JSON:
		empty := true
		r.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return !empty
	default:
		return false
	}
}

// Hook returns a request hook for transport.RoundTripper that patches APO
// bodies in flight
func Hook(domain string, logger *zap.Logger) func(req *http.Request) error {
	return func(req *http.Request) error {
		if req.Method != http.MethodPatch || req.Body == nil || !settingsURL.MatchString(req.URL.String()) {
			return nil
		}

		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return err
		}

		patched, ok := PatchHostnames(req.Method, req.URL.String(), body, domain)
		if ok {
			logger.Info("Added domain to APO hostnames", zap.String("domain", domain))
		}

		req.Body = io.NopCloser(bytes.NewReader(patched))
		req.ContentLength = int64(len(patched))
		req.Header.Set("Content-Length", strconv.Itoa(len(patched)))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(patched)), nil
		}
		return nil
	}
}
