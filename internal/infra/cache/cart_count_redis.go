package cache

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("layer", "cache").Logger()

const cartCountTTL = 10 * time.Minute

// CartCountRedis はカートバッジ数のキャッシュ。
// カート変更時は必ずInvalidateし、次のGetでDBから数え直す。
type CartCountRedis struct {
	client *redis.Client
}

func NewCartCountRedis(client *redis.Client) *CartCountRedis {
	return &CartCountRedis{client: client}
}

func cartCountKey(userID int64) string {
	return fmt.Sprintf("cart:count:%d", userID)
}

func (c *CartCountRedis) Get(ctx context.Context, userID int64) (int64, bool) {
	v, err := c.client.Get(ctx, cartCountKey(userID)).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		//Redis障害はキャッシュミス扱い
		logger.Warn().Err(err).Int64("user_id", userID).Msg("cart count get failed")
		return 0, false
	}

	count, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

func (c *CartCountRedis) Set(ctx context.Context, userID int64, count int64) {
	if err := c.client.Set(ctx, cartCountKey(userID), count, cartCountTTL).Err(); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("cart count set failed")
	}
}

func (c *CartCountRedis) Invalidate(ctx context.Context, userID int64) {
	if err := c.client.Del(ctx, cartCountKey(userID)).Err(); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("cart count invalidate failed")
	}
}
