package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
)

// T is the subset of testing.TB the helpers need.
type T interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// ReadJSONResponse checks the status code and decodes the JSON body into v.
func ReadJSONResponse(t T, w *httptest.ResponseRecorder, wantStatus int, v any) {
	t.Helper()
	if w.Code != wantStatus {
		t.Errorf("expected status %d, got %d: %s", wantStatus, w.Code, w.Body.String())
		t.FailNow()
	}

	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Errorf("failed to decode JSON response: %v", err)
		t.FailNow()
	}
}

// ErrorBody mirrors the standard error response.
type ErrorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// ReadErrorResponse checks the status code and decodes a standard error body.
func ReadErrorResponse(t T, w *httptest.ResponseRecorder, wantStatus int) ErrorBody {
	t.Helper()
	var body ErrorBody
	ReadJSONResponse(t, w, wantStatus, &body)
	return body
}

// CreateRequest creates an HTTP request with an optional JSON body and headers.
func CreateRequest(method, path string, body any, headers map[string]string) *http.Request {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// CreateRawRequest creates a request whose body is sent as-is with the given
// content type, as used for document uploads.
func CreateRawRequest(method, path, contentType string, body []byte, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}
