// Package geo resolves building addresses to coordinates through an
// external geocoding service.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotFound reports that the service has no coordinates for the
// address. A zero/zero result is treated the same way by callers.
var ErrNotFound = errors.New("address not found")

// Resolver is the geocoding collaborator contract consumed by the
// dataset builder.
type Resolver interface {
	// Resolve returns the latitude and longitude for an address.
	Resolve(ctx context.Context, address string) (lat, lon float64, err error)
}

// HTTPResolver resolves addresses against an HTTP geocoding endpoint
// returning {"lat": ..., "lon": ...} or {"error": "..."}.
type HTTPResolver struct {
	BaseURL string
	Client  *http.Client

	// MaxRetries bounds retry attempts for transient failures.
	// Defaults to 3.
	MaxRetries uint64
}

// NewHTTPResolver builds a resolver for the given endpoint base URL.
func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type geoResponse struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Error string   `json:"error"`
}

// Resolve looks up one address, retrying transient transport and
// server errors with exponential backoff. A service-level "not found"
// answer is permanent and not retried.
func (r *HTTPResolver) Resolve(ctx context.Context, address string) (float64, float64, error) {
	retries := r.MaxRetries
	if retries == 0 {
		retries = 3
	}

	var lat, lon float64
	operation := func() error {
		var err error
		lat, lon, err = r.fetch(ctx, address)
		if errors.Is(err, ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return 0, 0, fmt.Errorf("resolve %q: %w", address, err)
	}
	return lat, lon, nil
}

func (r *HTTPResolver) fetch(ctx context.Context, address string) (float64, float64, error) {
	endpoint := r.BaseURL + "/" + url.PathEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, backoff.Permanent(err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, 0, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoder returned %s", resp.Status)
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, err
	}
	if body.Error != "" {
		return 0, 0, fmt.Errorf("%w: %s", ErrNotFound, body.Error)
	}
	if body.Lat == nil || body.Lon == nil {
		return 0, 0, ErrNotFound
	}
	return *body.Lat, *body.Lon, nil
}
