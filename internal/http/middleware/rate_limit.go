package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/ignatzorin/telehealth-backend/internal/logger"
	"github.com/ignatzorin/telehealth-backend/internal/pkg/apperror"
)

// NewRateLimitStore возвращает хранилище счётчиков лимитера.
// При заданном redisURL счётчики общие для всех инстансов, иначе живут в памяти процесса.
func NewRateLimitStore(ctx context.Context, redisURL, prefix string) (limiter.Store, error) {
	if redisURL == "" {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   prefix,
		MaxRetry: limiter.DefaultMaxRetry,
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"addr": opts.Addr, "prefix": prefix}).Info("Rate limiter uses redis store")
	return store, nil
}

// RateLimitMiddleware создаёт middleware для ограничения количества запросов.
// Ключ - ID пользователя из токена, для анонимных запросов - IP.
// По умолчанию: 10 запросов в минуту.
func RateLimitMiddleware(store limiter.Store, limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = 1 * time.Minute
	}

	rate := limiter.Rate{
		Period: period,
		Limit:  limit,
	}
	instance := limiter.New(store, rate)

	return func(c *gin.Context) {
		limitCtx, err := instance.Get(c.Request.Context(), rateLimitKey(c))
		if err != nil {
			logger.Log.WithError(err).Error("Rate limiter store failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": internalErrorMessage,
				"code":  apperror.ErrCodeInternal,
			})
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limitCtx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", limitCtx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", limitCtx.Reset))

		if limitCtx.Reached {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "слишком много запросов, попробуйте позже",
				"code":  "RATE_LIMITED",
			})
			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if raw, ok := c.Get(ContextUserIDKey); ok {
		if userID, ok := raw.(uuid.UUID); ok && userID != uuid.Nil {
			return "user:" + userID.String()
		}
	}
	return "ip:" + c.ClientIP()
}
