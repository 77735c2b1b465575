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
)

// APIResponse mirrors the JSON envelope written by the HTTP layer.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

// APIError is the error part of the envelope. Details is an object for bid
// rejections and a list for validation failures.
type APIError struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Details   json.RawMessage `json:"details"`
}

// APIMeta is the pagination part of the envelope.
type APIMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// Request describes one call made with Do.
type Request struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
}

// Do serves req through h and decodes the envelope.
func Do(t *testing.T, h http.Handler, req Request) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		require.NoError(t, err, "Failed to marshal request body")
		body = bytes.NewReader(data)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	r := httptest.NewRequest(method, req.Path, body)
	if req.Body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode response: %s", w.Body.String())
	return w, resp
}

// DecodeData unmarshals the data part of a successful response into T.
func DecodeData[T any](t *testing.T, resp APIResponse) T {
	t.Helper()

	require.True(t, resp.Success, "Expected a successful response, got %+v", resp.Error)
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out), "Failed to decode data")
	return out
}

// AssertErrorCode asserts an error envelope with the given status and code.
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, resp APIResponse, status int, code string) {
	t.Helper()

	assert.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	assert.False(t, resp.Success)
	if assert.NotNil(t, resp.Error, "Expected error object in response") {
		assert.Equal(t, code, resp.Error.Code)
	}
}

// ErrorDetails decodes the object form of error details.
func ErrorDetails(t *testing.T, resp APIResponse) map[string]any {
	t.Helper()

	require.NotNil(t, resp.Error, "Expected error object in response")
	var details map[string]any
	require.NoError(t, json.Unmarshal(resp.Error.Details, &details), "Failed to decode details: %s", resp.Error.Details)
	return details
}
