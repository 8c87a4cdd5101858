package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const revokedPrefix = "jwt:revoked:"

// Denylist records revoked token ids until the token would have expired
type Denylist struct {
	client *redis.Client
	now    func() time.Time
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client, now: time.Now}
}

func (d *Denylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, revokedPrefix+jti, 1, ttl).Err()
}

// IsRevoked reports whether jti was revoked. Callers decide how to treat errors.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := d.client.Get(ctx, revokedPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
