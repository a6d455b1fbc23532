package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisStoreKeys(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	store := NewRedisStore(rdb, "", 0)
	if got := store.codesKey("52.373293,4.893718"); got != "mapcode:codes:52.373293,4.893718" {
		t.Errorf("codesKey = %s", got)
	}
	if got := store.coordsKey("nld  49.4v"); got != "mapcode:coords:NLD 49.4V" {
		t.Errorf("coordsKey = %s", got)
	}
	if store.ttl != DefaultTTLDays*24*time.Hour {
		t.Errorf("ttl = %v", store.ttl)
	}
}

func TestOpenRedisEmptyAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisOptions{}); err == nil {
		t.Error("expected error for empty address")
	}
}
