package mileage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fleetpay/internal/platform/cache"
)

// ZippopotamProvider resolves US zip codes via api.zippopotam.us.
type ZippopotamProvider struct {
	BaseURL    string
	httpClient *http.Client
}

func NewZippopotamProvider(timeout time.Duration) *ZippopotamProvider {
	return &ZippopotamProvider{
		BaseURL:    "https://api.zippopotam.us",
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *ZippopotamProvider) Name() string { return "zippopotam" }

func (p *ZippopotamProvider) Locate(ctx context.Context, zip string) (cache.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/us/%s", p.BaseURL, zip), nil)
	if err != nil {
		return cache.Coordinates{}, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return cache.Coordinates{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return cache.Coordinates{}, fmt.Errorf("zippopotam returned status %d for %s", resp.StatusCode, zip)
	}

	var payload struct {
		Places []struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"places"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return cache.Coordinates{}, err
	}
	if len(payload.Places) == 0 {
		return cache.Coordinates{}, fmt.Errorf("zippopotam has no places for %s", zip)
	}
	return parseCoordinates(payload.Places[0].Latitude, payload.Places[0].Longitude)
}

// NominatimProvider is the fallback geocoder, backed by OpenStreetMap.
type NominatimProvider struct {
	BaseURL    string
	httpClient *http.Client
}

func NewNominatimProvider(timeout time.Duration) *NominatimProvider {
	return &NominatimProvider{
		BaseURL:    "https://nominatim.openstreetmap.org",
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *NominatimProvider) Name() string { return "nominatim" }

func (p *NominatimProvider) Locate(ctx context.Context, zip string) (cache.Coordinates, error) {
	query := url.Values{}
	query.Set("postalcode", zip)
	query.Set("country", "us")
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return cache.Coordinates{}, err
	}
	req.Header.Set("User-Agent", "fleetpay/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return cache.Coordinates{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return cache.Coordinates{}, fmt.Errorf("nominatim returned status %d for %s", resp.StatusCode, zip)
	}

	var payload []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return cache.Coordinates{}, err
	}
	if len(payload) == 0 {
		return cache.Coordinates{}, fmt.Errorf("nominatim has no match for %s", zip)
	}
	return parseCoordinates(payload[0].Lat, payload[0].Lon)
}

func parseCoordinates(lat, lng string) (cache.Coordinates, error) {
	parsedLat, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return cache.Coordinates{}, err
	}
	parsedLng, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return cache.Coordinates{}, err
	}
	return cache.Coordinates{Lat: parsedLat, Lng: parsedLng}, nil
}
