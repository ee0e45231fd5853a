package mileage

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetpay/internal/platform/cache"
)

type fakeProvider struct {
	name   string
	coords map[string]cache.Coordinates
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Locate(_ context.Context, zip string) (cache.Coordinates, error) {
	f.calls++
	if f.err != nil {
		return cache.Coordinates{}, f.err
	}
	coords, ok := f.coords[zip]
	if !ok {
		return cache.Coordinates{}, errors.New("unknown zip")
	}
	return coords, nil
}

var (
	chicago = cache.Coordinates{Lat: 41.8781, Lng: -87.6298}
	dallas  = cache.Coordinates{Lat: 32.7767, Lng: -96.7970}
)

func TestResolveCalculatedViaPrimaryProvider(t *testing.T) {
	primary := &fakeProvider{name: "primary", coords: map[string]cache.Coordinates{
		"60601": chicago,
		"75201": dallas,
	}}
	resolver := NewResolver([]Provider{primary}, cache.NewMemory(), time.Second)

	result := resolver.Resolve(context.Background(), "60601", "75201")
	assert.Equal(t, MethodCalculated, result.Method)
	// Great-circle Chicago-Dallas is roughly 800 miles.
	assert.InDelta(t, 800, result.Miles, 30)
}

func TestResolveFallsBackToSecondProvider(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("timeout")}
	backup := &fakeProvider{name: "backup", coords: map[string]cache.Coordinates{
		"60601": chicago,
		"75201": dallas,
	}}
	resolver := NewResolver([]Provider{broken, backup}, cache.NewMemory(), time.Second)

	result := resolver.Resolve(context.Background(), "60601", "75201")
	assert.Equal(t, MethodCalculated, result.Method)
	assert.Equal(t, 2, broken.calls, "both zips should try the primary first")
}

func TestResolveUsesCacheBeforeProviders(t *testing.T) {
	coordCache := cache.NewMemory()
	coordCache.Put(context.Background(), "60601", chicago)
	coordCache.Put(context.Background(), "75201", dallas)
	provider := &fakeProvider{name: "unused", err: errors.New("should not be called")}
	resolver := NewResolver([]Provider{provider}, coordCache, time.Second)

	result := resolver.Resolve(context.Background(), "60601", "75201")
	assert.Equal(t, MethodCalculated, result.Method)
	assert.Zero(t, provider.calls)
}

func TestResolveRegionCentroidWhenProvidersDown(t *testing.T) {
	down := &fakeProvider{name: "down", err: errors.New("unreachable")}
	resolver := NewResolver([]Provider{down}, cache.NewMemory(), time.Second)

	// Both zips resolve through the region table; the distance is still
	// haversine-derived but tagged ESTIMATED.
	result := resolver.Resolve(context.Background(), "60601", "90210")
	assert.Equal(t, MethodEstimated, result.Method)
	assert.Greater(t, result.Miles, 1000.0)
	assert.Less(t, result.Miles, 2500.0)
}

func TestResolveNeverFails(t *testing.T) {
	down := &fakeProvider{name: "down", err: errors.New("unreachable")}
	resolver := NewResolver([]Provider{down}, cache.NewMemory(), time.Second)

	// Garbage input cannot even hit the region table; the linear heuristic
	// still produces a clamped estimate.
	result := resolver.Resolve(context.Background(), "xxxxx", "yyyyy")
	assert.Equal(t, MethodEstimated, result.Method)
	assert.GreaterOrEqual(t, result.Miles, float64(minEstimatedMiles))
	assert.LessOrEqual(t, result.Miles, float64(maxEstimatedMiles))
}

func TestResolveGarbageZipSkipsRegionTable(t *testing.T) {
	down := &fakeProvider{name: "down", err: errors.New("unreachable")}
	resolver := NewResolver([]Provider{down}, cache.NewMemory(), time.Second)

	// A digit-free code must not be padded into the Northeast band; the pair
	// falls through to the heuristic floor instead of a 0-mile centroid match.
	result := resolver.Resolve(context.Background(), "!!!", "???")
	assert.Equal(t, MethodEstimated, result.Method)
	assert.Equal(t, float64(minEstimatedMiles), result.Miles)

	// One good code does not rescue a garbage partner.
	mixed := resolver.Resolve(context.Background(), "60601", "junk")
	assert.Equal(t, MethodEstimated, mixed.Method)
	assert.GreaterOrEqual(t, mixed.Miles, float64(minEstimatedMiles))
}

func TestNormalizeZip(t *testing.T) {
	zip, ok := normalizeZip("60601-2345")
	require.True(t, ok)
	assert.Equal(t, "60601", zip)

	zip, ok = normalizeZip("601")
	require.True(t, ok)
	assert.Equal(t, "00601", zip)

	zip, ok = normalizeZip("123456789")
	require.True(t, ok)
	assert.Equal(t, "12345", zip)

	zip, ok = normalizeZip("no digits")
	assert.False(t, ok)
	assert.Equal(t, "00000", zip)

	// Below the lowest assigned US code.
	_, ok = normalizeZip("00100")
	assert.False(t, ok)
}

func TestHaversineKnownDistance(t *testing.T) {
	// NYC to LA is about 2,450 miles great-circle.
	nyc := cache.Coordinates{Lat: 40.7128, Lng: -74.0060}
	la := cache.Coordinates{Lat: 34.0522, Lng: -118.2437}
	require.InDelta(t, 2450, haversineMiles(nyc, la), 20)

	assert.Zero(t, math.Round(haversineMiles(nyc, nyc)))
}

func TestLinearEstimateClamped(t *testing.T) {
	assert.Equal(t, float64(minEstimatedMiles), linearEstimate("10001", "10002"))
	assert.Equal(t, float64(maxEstimatedMiles), linearEstimate("00001", "99999"))

	mid := linearEstimate("10000", "40000")
	assert.Greater(t, mid, float64(minEstimatedMiles))
	assert.Less(t, mid, float64(maxEstimatedMiles))
}
