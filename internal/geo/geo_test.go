package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPResolver_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/6245 Agronomy Road V6T 1Z4", r.URL.Path)
		w.Write([]byte(`{"lat": 49.26125, "lon": -123.24807}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL)
	lat, lon, err := r.Resolve(context.Background(), "6245 Agronomy Road V6T 1Z4")
	require.NoError(t, err)
	assert.Equal(t, 49.26125, lat)
	assert.Equal(t, -123.24807, lon)
}

func TestHTTPResolver_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "no results"}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL)
	_, _, err := r.Resolve(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPResolver_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL)
	_, _, err := r.Resolve(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPResolver_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"lat": 49.0, "lon": -123.0}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL)
	lat, lon, err := r.Resolve(context.Background(), "somewhere")
	require.NoError(t, err)
	assert.Equal(t, 49.0, lat)
	assert.Equal(t, -123.0, lon)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPResolver_MissingCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL)
	_, _, err := r.Resolve(context.Background(), "somewhere")
	assert.ErrorIs(t, err, ErrNotFound)
}
