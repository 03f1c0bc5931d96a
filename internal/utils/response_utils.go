package utils

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go-cf-cache/internal/models"
)

// RecordFromResponse captures resp as a cacheable record. The body is read
// fully and replaced so the caller can still consume it.
func RecordFromResponse(resp *http.Response) (*models.ResponseRecord, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}

	var body []byte
	if resp.Body != nil {
		var err error
		body, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}

	headers := resp.Header.Clone()
	if headers == nil {
		headers = http.Header{}
	}

	return &models.ResponseRecord{
		StatusCode: resp.StatusCode,
		Message:    StatusMessage(resp),
		Headers:    headers,
		Body:       body,
		Cookies:    resp.Header.Values("Set-Cookie"),
		Filename:   attachmentFilename(resp.Header),
	}, nil
}

// ResponseFromRecord rebuilds an *http.Response for req from a stored record
func ResponseFromRecord(rec *models.ResponseRecord, req *http.Request) *http.Response {
	headers := rec.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	if len(rec.Cookies) > 0 && len(headers.Values("Set-Cookie")) == 0 {
		for _, c := range rec.Cookies {
			headers.Add("Set-Cookie", c)
		}
	}
	headers.Set("Content-Length", strconv.Itoa(len(rec.Body)))

	message := rec.Message
	if message == "" {
		message = http.StatusText(rec.StatusCode)
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", rec.StatusCode, message),
		StatusCode:    rec.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(bytes.NewReader(rec.Body)),
		ContentLength: int64(len(rec.Body)),
		Request:       req,
	}
}

// StatusMessage returns the reason phrase of resp, e.g. "OK"
func StatusMessage(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if msg := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); msg != "" {
		return msg
	}
	return http.StatusText(resp.StatusCode)
}

// attachmentFilename extracts the filename parameter of Content-Disposition
func attachmentFilename(h http.Header) string {
	cd := h.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}
