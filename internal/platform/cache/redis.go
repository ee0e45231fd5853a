package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const coordinateTTL = 30 * 24 * time.Hour

// Redis caches coordinates across app servers. Failures degrade to a miss;
// the resolver then falls through its provider chain as usual.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (Coordinates, bool) {
	raw, err := r.client.Get(ctx, "geo:"+key).Bytes()
	if err != nil {
		return Coordinates{}, false
	}
	var coords Coordinates
	if err := json.Unmarshal(raw, &coords); err != nil {
		return Coordinates{}, false
	}
	return coords, true
}

func (r *Redis) Put(ctx context.Context, key string, coords Coordinates) {
	raw, err := json.Marshal(coords)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, "geo:"+key, raw, coordinateTTL).Err(); err != nil {
		slog.Warn("geocode cache write failed", "key", key, "err", err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
