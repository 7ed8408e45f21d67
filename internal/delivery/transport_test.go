package delivery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportPostsPayload(t *testing.T) {
	var gotBody string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := NewHTTPTransport(5, 4096)
	result, err := transport.Post(context.Background(), server.URL, []byte(`{"prop1":1}`))

	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, `{"prop1":1}`, gotBody)
	assert.Equal(t, "application/json", gotContentType)
}

func TestHTTPTransportNonSuccessStatusIsNotSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream broken"))
	}))
	defer server.Close()

	transport := NewHTTPTransport(5, 4096)
	result, err := transport.Post(context.Background(), server.URL, []byte(`{}`))

	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.Equal(t, http.StatusBadGateway, result.StatusCode)
	assert.Equal(t, "upstream broken", result.Body)
}

func TestHTTPTransportCapsResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	transport := NewHTTPTransport(5, 10)
	result, err := transport.Post(context.Background(), server.URL, []byte(`{}`))

	require.NoError(t, err)
	assert.Len(t, result.Body, 10)
}

func TestHTTPTransportReportsNetworkFailure(t *testing.T) {
	transport := NewHTTPTransport(1, 4096)

	_, err := transport.Post(context.Background(), "http://127.0.0.1:1/unreachable", []byte(`{}`))

	assert.Error(t, err)
}
