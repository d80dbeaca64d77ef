// Package ratelimit is a Redis fixed-window counter per user and action.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Limiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	now    func() time.Time
}

func New(client redis.Cmdable, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// windowKey names the counter for the window containing t. A new window
// gets a new key, so the counter never needs resetting.
func (l *Limiter) windowKey(action, subject string, t time.Time) string {
	start := t.UnixNano() / int64(l.window)
	return "ratelimit:" + action + ":" + subject + ":" + strconv.FormatInt(start, 10)
}

// Allow counts one hit and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, action, subject string) (bool, error) {
	key := l.windowKey(action, subject, l.now())

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", action, err)
	}
	return incr.Val() <= l.limit, nil
}

// Middleware limits action per subject. subject returns "" for requests it
// cannot attribute, which pass through. Redis failures fail open.
func Middleware(l *Limiter, action string, subject func(*gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		who := subject(c)
		if who == "" {
			c.Next()
			return
		}

		ok, err := l.Allow(c.Request.Context(), action, who)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("action", action), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			response.TooManyRequests(c, "")
			return
		}
		c.Next()
	}
}
