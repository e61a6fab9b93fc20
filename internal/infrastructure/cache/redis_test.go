package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisURL(t *testing.T) string {
	url := os.Getenv("WORDINDEX_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: WORDINDEX_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCache(t *testing.T) {
	url := redisURL(t)
	ctx := context.Background()

	c, err := NewRedisCache(url, "wordindex-test:", time.Minute)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	require.NoError(t, c.Clear(ctx))

	require.NoError(t, c.Set(ctx, "search:koko", []byte("[]"), 0))
	got, err := c.Get(ctx, "search:koko")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "search:koko")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNewRedisCache_RequiresURL(t *testing.T) {
	_, err := NewRedisCache("", "p:", time.Minute)
	assert.Error(t, err)
}
