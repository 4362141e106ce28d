// Package testutil provides common test utilities for handler and integration
// tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora/pkg/platform/httputil"
)

// NewJSONRequest creates an HTTP request with a JSON body. The body is
// marshaled automatically.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRequest creates a simple HTTP request without a body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// NewRequestWithBody creates an HTTP request with a raw string body. Useful
// for malformed-payload tests where marshaling would get in the way.
func NewRequestWithBody(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// ReadBody reads the response body as bytes.
func ReadBody(t *testing.T, rr *httptest.ResponseRecorder) []byte {
	t.Helper()
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err, "failed to read response body")
	return body
}

// UnmarshalEnvelope unmarshals the standard response envelope.
func UnmarshalEnvelope(t *testing.T, rr *httptest.ResponseRecorder) httputil.Envelope {
	t.Helper()
	var envelope httputil.Envelope
	require.NoError(t, json.Unmarshal(ReadBody(t, rr), &envelope), "failed to unmarshal envelope")
	return envelope
}

// UnmarshalData unmarshals the envelope's data field into the target type.
func UnmarshalData[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	envelope := UnmarshalEnvelope(t, rr)
	require.NotNil(t, envelope.Data, "envelope has no data field")

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err, "failed to re-marshal envelope data")

	var result T
	require.NoError(t, json.Unmarshal(raw, &result), "failed to unmarshal envelope data")
	return &result
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code")
}

// AssertErrorMessage asserts the response is an error envelope carrying the
// expected message.
func AssertErrorMessage(t *testing.T, rr *httptest.ResponseRecorder, expected string) {
	t.Helper()
	envelope := UnmarshalEnvelope(t, rr)
	assert.Equal(t, "error", envelope.Status, "expected an error envelope")
	assert.Equal(t, expected, envelope.Message, "unexpected error message")
}
