package models

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ResponseRecord is the cached form of a Cloudflare API response
type ResponseRecord struct {
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
	Cookies    []string    `json:"cookies,omitempty"`
	Filename   string      `json:"filename,omitempty"`
}

var errMalformedRecord = errors.New("malformed response record")

// Encode serializes the record for storage
func (r *ResponseRecord) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeResponseRecord parses a stored record. A value that decodes but lacks
// a status code is not a response record.
func DecodeResponseRecord(data []byte) (*ResponseRecord, error) {
	var rec ResponseRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec.StatusCode < 100 || rec.StatusCode > 999 {
		return nil, errMalformedRecord
	}
	if rec.Headers == nil {
		rec.Headers = http.Header{}
	}
	return &rec, nil
}
