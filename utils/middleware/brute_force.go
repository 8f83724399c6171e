package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/utils/cache"
	"github.com/learnhub/learnhub-api/utils/response"
)

// attemptWindow is how long failed attempts are counted before resetting.
const attemptWindow = 15 * time.Minute

// BruteForceProtection applies progressive per-IP lockouts to the login
// endpoint, backed by redis. All checks fail open: a redis outage must
// not lock out legitimate users.
type BruteForceProtection struct {
	redisCache *cache.RedisCache
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(redisCache *cache.RedisCache) *BruteForceProtection {
	return &BruteForceProtection{redisCache: redisCache}
}

func attemptKey(ip string) string { return fmt.Sprintf("brute_force:attempts:%s", ip) }
func lockKey(ip string) string    { return fmt.Sprintf("brute_force:lock:%s", ip) }

// CheckAndRecordAttempt rejects requests from currently locked IPs with a
// Retry-After header.
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := lockKey(c.IP())

		locked, err := b.redisCache.Exists(c.Context(), key)
		if err != nil {
			return c.Next()
		}
		if !locked {
			return c.Next()
		}

		ttl, _ := b.redisCache.TTL(c.Context(), key)
		retryAfter := int(ttl.Seconds())
		if retryAfter < 0 {
			retryAfter = 60
		}
		c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
	}
}

// RecordFailedAttempt bumps the per-IP counter and escalates the lockout
// as attempts accumulate.
func (b *BruteForceProtection) RecordFailedAttempt(c *fiber.Ctx, ip string) error {
	ctx := c.Context()

	attempts, err := b.redisCache.Increment(ctx, attemptKey(ip))
	if err != nil {
		return nil
	}
	if attempts == 1 {
		b.redisCache.Expire(ctx, attemptKey(ip), attemptWindow)
	}

	lockFor := lockDuration(attempts)
	if lockFor == 0 {
		return nil
	}
	return b.redisCache.Set(ctx, lockKey(ip), "locked", lockFor)
}

// RecordSuccessfulAttempt resets the counter and any lock for the IP.
func (b *BruteForceProtection) RecordSuccessfulAttempt(c *fiber.Ctx, ip string) error {
	ctx := c.Context()
	b.redisCache.Delete(ctx, attemptKey(ip))
	b.redisCache.Delete(ctx, lockKey(ip))
	return nil
}

func lockDuration(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}
