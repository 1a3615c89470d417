package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"
	"go-hrms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyCacheKey = "idempotency_cache_key"
	IdempotencyLockKey  = "idempotency_lock_key"

	idempotencyLockTTL = 30 * time.Second
)

var ErrRequestInFlight = apperror.New("PROCESSING", "The request is already being processed", http.StatusConflict)

// Idempotency replays a cached response for a repeated Idempotency-Key and
// rejects a duplicate that arrives while the first one is still running.
// The handler stores the result under IdempotencyCacheKey and releases
// IdempotencyLockKey when it is done.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		userID := c.GetString(ValidatedUserID)
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), userID, idempKey)
		lockKey := cacheKey + ":lock"
		ctx := c.Request.Context()

		val, err := rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached any
			if json.Unmarshal([]byte(val), &cached) == nil {
				response.Success(c, http.StatusOK, cached, nil)
				c.Abort()
				return
			}
		}

		// The lock expires on its own if the process dies mid-request.
		isNew, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			contextutil.GetLogger(ctx, zap.L()).Warn("idempotency lock unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			response.Abort(c, ErrRequestInFlight)
			return
		}

		c.Set(IdempotencyCacheKey, cacheKey)
		c.Set(IdempotencyLockKey, lockKey)

		c.Next()
	}
}
