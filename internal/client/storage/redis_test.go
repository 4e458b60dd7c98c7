package storage

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisBackend_KeyPrefix(t *testing.T) {
	client := unreachableRedis()
	defer client.Close()

	assert.Equal(t, "storefront:cart_v1", NewRedisBackend(client, "").key("cart_v1"))
	assert.Equal(t, "shop:auth_token", NewRedisBackend(client, "shop:").key("auth_token"))
}

func TestRedisBackend_UnavailableIsAbsent(t *testing.T) {
	b, err := NewBackend(DriverRedis, WithRedisClient(unreachableRedis()), WithRedisPrefix("t:"))
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	a := NewAdapter(b, 500*time.Millisecond, nil)
	defer a.Close()

	assert.NotPanics(t, func() {
		a.WriteJSON("k", "v")
		a.Remove("k")
	})
	_, ok := a.Read("k")
	assert.False(t, ok)
}
