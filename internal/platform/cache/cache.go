// Package cache provides the shared coordinate cache used by the mileage
// resolver. Two backends exist: an in-process map for single-node deployments
// and Redis for fleets of app servers. Writers are idempotent, so
// last-writer-wins is acceptable.
package cache

import (
	"context"
	"sync"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type CoordinateCache interface {
	Get(ctx context.Context, key string) (Coordinates, bool)
	Put(ctx context.Context, key string, coords Coordinates)
}

type Memory struct {
	mu    sync.RWMutex
	items map[string]Coordinates
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]Coordinates)}
}

func (m *Memory) Get(_ context.Context, key string) (Coordinates, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coords, ok := m.items[key]
	return coords, ok
}

func (m *Memory) Put(_ context.Context, key string, coords Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = coords
}
