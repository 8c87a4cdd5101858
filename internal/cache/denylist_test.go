package cache

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only if REDIS_ADDR is set.
func TestDenylistIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	client, err := Connect(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), db)
	require.NoError(t, err)
	defer client.Close()

	d := NewDenylist(client)
	ctx := context.Background()
	jti := uuid.NewString()

	revoked, err := d.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, jti, time.Now().Add(time.Minute)))
	revoked, err = d.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(ctx, revokedPrefix+jti).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	// A nil client would panic if Revoke touched Redis.
	d := &Denylist{now: time.Now}
	assert.NoError(t, d.Revoke(context.Background(), "jti", time.Now().Add(-time.Second)))
}

func TestConnectWithoutAddr(t *testing.T) {
	client, err := Connect(context.Background(), "", "", 0)
	assert.NoError(t, err)
	assert.Nil(t, client)
}
