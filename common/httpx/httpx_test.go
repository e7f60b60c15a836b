package httpx

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themonkai/scripture-rag/config"
)

func TestDoRetriesThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewFromConfig(&config.HTTPClientConfig{Retry: 1, BackoffMinMs: 1, BackoffMaxMs: 2})
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestDoHostAllowlist(t *testing.T) {
	c := NewFromConfig(&config.HTTPClientConfig{HostAllowlist: []string{"allowed.example.com"}})
	req, _ := http.NewRequest(http.MethodGet, "http://blocked.example.com/x", nil)
	_, err := c.Do(req)
	assert.ErrorIs(t, err, ErrHostNotAllowed)
}

func TestMatchHost(t *testing.T) {
	assert.True(t, matchHost("*", "anything.example.com"))
	assert.True(t, matchHost("api.example.com", "API.example.com"))
	assert.True(t, matchHost("*.example.com", "api.example.com"))
	assert.True(t, matchHost("*.example.com", "example.com"))
	assert.False(t, matchHost("*.example.com", "example.org"))
}

func TestDoOpensCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewFromConfig(&config.HTTPClientConfig{
		Retry: 0, BackoffMinMs: 1, BackoffMaxMs: 2,
		MaxConsecutiveFailures: 2, CircuitOpenSeconds: 5,
	})
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
		resp, _ := c.Do(req)
		if resp != nil {
			resp.Body.Close()
		}
	}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	_, err := c.Do(req)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}
