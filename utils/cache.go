package utils

import (
	"context"
	"log"
	"time"

	"adspace/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the generic cache client.
var CacheClient *redis.Client

// InitCache initializes the Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// EventDeduper remembers processed webhook event ids for a bounded time.
type EventDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventDeduper(client *redis.Client, ttl time.Duration) *EventDeduper {
	return &EventDeduper{client: client, ttl: ttl}
}

func dedupeKey(eventID string) string {
	return "webhook:event:" + eventID
}

// Claim marks an event as being processed. It returns false if the event was seen before.
func (d *EventDeduper) Claim(ctx context.Context, eventID string) (bool, error) {
	return d.client.SetNX(ctx, dedupeKey(eventID), time.Now().Unix(), d.ttl).Result()
}

// Release forgets an event so a redelivery is processed again.
func (d *EventDeduper) Release(ctx context.Context, eventID string) error {
	return d.client.Del(ctx, dedupeKey(eventID)).Err()
}
