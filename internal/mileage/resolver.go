// Package mileage resolves a pair of postal codes to a driving-relevant
// distance. Pay calculation must never block on network flakiness, so the
// resolver degrades through a provider chain down to coarse estimates and
// always returns a result with a provenance tag.
package mileage

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"fleetpay/internal/platform/cache"
)

const (
	MethodCalculated = "CALCULATED"
	MethodEstimated  = "ESTIMATED"

	earthRadiusMiles = 3959

	minEstimatedMiles = 50
	maxEstimatedMiles = 3000

	// Lowest assigned US zip (00501, Holtsville NY). Anything below is not a
	// real code and must not land in a region band.
	minUSZip = 501
)

type Result struct {
	Miles  float64 `json:"miles"`
	Method string  `json:"method"`
}

// Provider geocodes a 5-digit US zip code.
type Provider interface {
	Name() string
	Locate(ctx context.Context, zip string) (cache.Coordinates, error)
}

type Resolver struct {
	providers []Provider
	cache     cache.CoordinateCache
	timeout   time.Duration
}

func NewResolver(providers []Provider, coordCache cache.CoordinateCache, timeout time.Duration) *Resolver {
	if coordCache == nil {
		coordCache = cache.NewMemory()
	}
	return &Resolver{providers: providers, cache: coordCache, timeout: timeout}
}

// Resolve returns a best-effort distance between two zip codes. It never
// returns an error: coordinates that had to come from the region-centroid
// table, or a distance derived from the numeric zip spread, are tagged
// ESTIMATED so reviewers can spot degraded pay inputs.
func (r *Resolver) Resolve(ctx context.Context, fromZip, toZip string) Result {
	from, fromValid := normalizeZip(fromZip)
	to, toValid := normalizeZip(toZip)

	fromCoords, fromSource := cache.Coordinates{}, sourceNone
	if fromValid {
		fromCoords, fromSource = r.locate(ctx, from)
	}
	toCoords, toSource := cache.Coordinates{}, sourceNone
	if toValid {
		toCoords, toSource = r.locate(ctx, to)
	}
	if fromSource != sourceNone && toSource != sourceNone {
		method := MethodCalculated
		if fromSource == sourceRegion || toSource == sourceRegion {
			method = MethodEstimated
		}
		return Result{
			Miles:  haversineMiles(fromCoords, toCoords),
			Method: method,
		}
	}

	slog.Warn("mileage resolution degraded to zip heuristic", "from", from, "to", to)
	return Result{Miles: linearEstimate(from, to), Method: MethodEstimated}
}

type coordSource int

const (
	sourceNone coordSource = iota
	sourceExact
	sourceRegion
)

// locate walks cache, then the provider chain, then the region centroid
// table. Cache writes are idempotent; every writer computes the same value.
func (r *Resolver) locate(ctx context.Context, zip string) (cache.Coordinates, coordSource) {
	if coords, ok := r.cache.Get(ctx, zip); ok {
		return coords, sourceExact
	}

	for _, provider := range r.providers {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		coords, err := provider.Locate(attemptCtx, zip)
		cancel()
		if err != nil {
			slog.Debug("geocode provider failed", "provider", provider.Name(), "zip", zip, "err", err)
			continue
		}
		r.cache.Put(ctx, zip, coords)
		return coords, sourceExact
	}

	if coords, ok := regionCentroid(zip); ok {
		return coords, sourceRegion
	}
	return cache.Coordinates{}, sourceNone
}

// normalizeZip keeps the leading digits and pads short codes to 5. The second
// return is false when the input carries no digits or falls below the lowest
// assigned US code, so coordinate lookup is skipped entirely.
func normalizeZip(raw string) (string, bool) {
	var digits strings.Builder
	for _, ch := range raw {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
		if digits.Len() == 5 {
			break
		}
	}
	if digits.Len() == 0 {
		return "00000", false
	}
	normalized := digits.String()
	for len(normalized) < 5 {
		normalized = "0" + normalized
	}
	numeric, _ := strconv.Atoi(normalized)
	return normalized, numeric >= minUSZip
}

func haversineMiles(a, b cache.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// linearEstimate maps the numeric zip spread to miles, clamped to a band that
// keeps pathological inputs from producing absurd pay.
func linearEstimate(fromZip, toZip string) float64 {
	from, _ := strconv.Atoi(fromZip)
	to, _ := strconv.Atoi(toZip)
	diff := math.Abs(float64(from - to))
	miles := diff * 0.04
	if miles < minEstimatedMiles {
		return minEstimatedMiles
	}
	if miles > maxEstimatedMiles {
		return maxEstimatedMiles
	}
	return miles
}
