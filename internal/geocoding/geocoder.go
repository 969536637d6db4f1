// Package geocoding resolves street addresses to coordinates. The booking
// core treats this as a black-box collaborator that may fail.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrNoResult is returned when the provider cannot resolve an address.
var ErrNoResult = errors.New("geocoding: address could not be resolved")

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Geocoder resolves a street address to a coordinate pair.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Point, error)
}

// HTTPGeocoder calls a Nominatim-style JSON endpoint:
// GET {base}?q=<address>&format=json returns [{"lat": "..", "lon": ".."}].
type HTTPGeocoder struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGeocoder creates an HTTPGeocoder against the given base URL.
func NewHTTPGeocoder(baseURL string) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type geocodeResult struct {
	Lat float64 `json:"lat,string"`
	Lon float64 `json:"lon,string"`
}

// Geocode implements Geocoder.
func (g *HTTPGeocoder) Geocode(ctx context.Context, address string) (Point, error) {
	endpoint := fmt.Sprintf("%s?q=%s&format=json&limit=1", g.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Point{}, fmt.Errorf("geocoding: build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("geocoding: request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("geocoding: provider returned status %d", resp.StatusCode)
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Point{}, fmt.Errorf("geocoding: decode response: %w", err)
	}
	if len(results) == 0 {
		return Point{}, ErrNoResult
	}
	return Point{Lat: results[0].Lat, Lon: results[0].Lon}, nil
}
