package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle(t *testing.T) {
	h := Throttle(named("ok"), 0.5, 2)
	r := newRequest(t, "GET", "http://api.local/", nil, "")

	for i := 0; i < 2; i++ {
		resp, err := h.Handle(r)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := h.Handle(r)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("Retry-After"))
}

func TestThrottle_Unlimited(t *testing.T) {
	h := Throttle(named("ok"), 0, 0)
	r := newRequest(t, "GET", "http://api.local/", nil, "")

	for i := 0; i < 50; i++ {
		resp, err := h.Handle(r)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestThrottle_SetRate(t *testing.T) {
	h := Throttle(named("ok"), 0.001, 1)
	r := newRequest(t, "GET", "http://api.local/", nil, "")

	_, _ = h.Handle(r)
	resp, _ := h.Handle(r)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	h.SetRate(0)
	resp, _ = h.Handle(r)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
