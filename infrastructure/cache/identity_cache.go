package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"syncsns/infrastructure/logger"
)

// IIdentityCache caches the platform account id resolved for an access
// token, saving a profile lookup per publish.
type IIdentityCache interface {
	Get(ctx context.Context, accessToken string) (string, bool)
	Set(ctx context.Context, accessToken, accountID string)
}

const identityTTL = 30 * time.Minute

// IdentityCache is the Redis implementation of IIdentityCache. A nil
// client disables caching; lookups then always miss.
type IdentityCache struct {
	client *redis.Client
}

func NewIdentityCache(client *redis.Client) IIdentityCache {
	return &IdentityCache{client: client}
}

// identityKey hashes the token so raw credentials never appear in Redis.
func identityKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return "ig:identity:" + hex.EncodeToString(sum[:])
}

func (c *IdentityCache) Get(ctx context.Context, accessToken string) (string, bool) {
	if c.client == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, identityKey(accessToken)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.GetLogger().WithField("error", err).Warn("identity cache get failed")
		}
		return "", false
	}
	return val, true
}

func (c *IdentityCache) Set(ctx context.Context, accessToken, accountID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, identityKey(accessToken), accountID, identityTTL).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("identity cache set failed")
	}
}
