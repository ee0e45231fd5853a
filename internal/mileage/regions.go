package mileage

import (
	"strconv"

	"fleetpay/internal/platform/cache"
)

type zipRegion struct {
	lowZip  int
	highZip int
	center  cache.Coordinates
}

// Nine US macro-regions keyed by zip range. Coarse by design: this tier only
// runs when every geocoding provider is down.
var zipRegions = []zipRegion{
	{0, 19999, cache.Coordinates{Lat: 41.7, Lng: -74.0}},      // Northeast
	{20000, 29999, cache.Coordinates{Lat: 36.8, Lng: -78.5}},  // Mid-Atlantic
	{30000, 39999, cache.Coordinates{Lat: 33.2, Lng: -86.0}},  // Southeast
	{40000, 49999, cache.Coordinates{Lat: 40.2, Lng: -84.5}},  // Ohio Valley
	{50000, 59999, cache.Coordinates{Lat: 44.8, Lng: -96.0}},  // Upper Midwest
	{60000, 69999, cache.Coordinates{Lat: 39.8, Lng: -93.0}},  // Central Plains
	{70000, 79999, cache.Coordinates{Lat: 32.5, Lng: -96.5}},  // South Central
	{80000, 89999, cache.Coordinates{Lat: 39.7, Lng: -108.0}}, // Mountain
	{90000, 99999, cache.Coordinates{Lat: 38.5, Lng: -120.5}}, // Pacific
}

func regionCentroid(zip string) (cache.Coordinates, bool) {
	numeric, err := strconv.Atoi(zip)
	if err != nil {
		return cache.Coordinates{}, false
	}
	for _, region := range zipRegions {
		if numeric >= region.lowZip && numeric <= region.highZip {
			return region.center, true
		}
	}
	return cache.Coordinates{}, false
}
