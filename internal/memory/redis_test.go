package memory

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Runs against a real server only when ZEON_TEST_REDIS_URL is set.
func TestRedisStoreRoundTrip(t *testing.T) {
	url := os.Getenv("ZEON_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ZEON_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rs, err := NewRedisStore(ctx, url, time.Minute)
	require.NoError(t, err)
	defer func() { _ = rs.Close() }()

	id := "test-" + uuid.NewString()
	rec, err := rs.Load(ctx, id)
	require.NoError(t, err)
	require.Nil(t, rec)

	require.NoError(t, rs.Save(ctx, &Record{SessionID: id, Messages: []Message{{Role: RoleUser, Content: "hi"}}}))
	rec, err = rs.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, rec.Messages, 1)

	ttl, err := rs.client.TTL(ctx, redisKey(id)).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}

func TestRedisStoreBadURL(t *testing.T) {
	t.Parallel()
	_, err := NewRedisStore(context.Background(), "not-a-url://", time.Minute)
	require.Error(t, err)
}

func TestRedisKey(t *testing.T) {
	t.Parallel()
	require.Equal(t, "zeon:memory:abc", redisKey("abc"))
}
