package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/pkg/logger"
)

// CapacityLimiter provides an atomic Redis-side booking guard over channel
// capacity windows. The SQL counters remain the source of truth; this guard
// closes the race between concurrent bookings sharing a capacity key, which
// a GET → check → INCR pattern would lose.
type CapacityLimiter struct {
	redis *redis.Client

	windowScript *redis.Script
}

// Lua script for atomic multi-window capacity check.
// The script checks all three windows and only increments if ALL pass.
const capacityWindowLuaScript = `
local dayKey = KEYS[1]
local weekKey = KEYS[2]
local monthKey = KEYS[3]
local increment = tonumber(ARGV[1])
local dayLimit = tonumber(ARGV[2])
local weekLimit = tonumber(ARGV[3])
local monthLimit = tonumber(ARGV[4])
local dayTTL = tonumber(ARGV[5])
local weekTTL = tonumber(ARGV[6])
local monthTTL = tonumber(ARGV[7])

local dayCurrent = tonumber(redis.call("GET", dayKey) or "0")
local weekCurrent = tonumber(redis.call("GET", weekKey) or "0")
local monthCurrent = tonumber(redis.call("GET", monthKey) or "0")

-- Check all windows BEFORE incrementing
if dayLimit > 0 and dayCurrent + increment > dayLimit then
    return {0, 1, dayCurrent}
end
if weekLimit > 0 and weekCurrent + increment > weekLimit then
    return {0, 2, weekCurrent}
end
if monthLimit > 0 and monthCurrent + increment > monthLimit then
    return {0, 3, monthCurrent}
end

local newDay = redis.call("INCRBY", dayKey, increment)
if newDay == increment then
    redis.call("EXPIRE", dayKey, dayTTL)
end

local newWeek = redis.call("INCRBY", weekKey, increment)
if newWeek == increment then
    redis.call("EXPIRE", weekKey, weekTTL)
end

local newMonth = redis.call("INCRBY", monthKey, increment)
if newMonth == increment then
    redis.call("EXPIRE", monthKey, monthTTL)
end

return {1, 0, newDay}
`

// NewCapacityLimiter creates a limiter with a pre-compiled Lua script.
func NewCapacityLimiter(redisClient *redis.Client) *CapacityLimiter {
	return &CapacityLimiter{
		redis:        redisClient,
		windowScript: redis.NewScript(capacityWindowLuaScript),
	}
}

// NewCapacityLimiterFromURL creates a limiter by connecting to Redis.
func NewCapacityLimiterFromURL(redisURL string) (*CapacityLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	logger.Info("capacity limiter connected", "redis_url", redisURL)
	return NewCapacityLimiter(client), nil
}

func (l *CapacityLimiter) keys(channel domain.Channel, repID string, now time.Time) []string {
	base := fmt.Sprintf("capacity:%s", channel)
	if repID != "" {
		base = fmt.Sprintf("capacity:%s:%s", channel, repID)
	}
	year, week := now.ISOWeek()
	return []string{
		fmt.Sprintf("%s:day:%s", base, now.Format("2006-01-02")),
		fmt.Sprintf("%s:week:%d-%02d", base, year, week),
		fmt.Sprintf("%s:month:%s", base, now.Format("2006-01")),
	}
}

// CheckAndConsume atomically checks all three capacity windows for the
// channel[+rep] key and consumes count units only if all pass. A zero limit
// leaves that window unbounded. Returns whether the booking is allowed and,
// when denied, which window blocked it.
func (l *CapacityLimiter) CheckAndConsume(ctx context.Context, channel domain.Channel, repID string, count, dailyLimit, weeklyLimit, monthlyLimit int) (allowed bool, blockedWindow string, err error) {
	now := time.Now()
	result, err := l.windowScript.Run(ctx, l.redis,
		l.keys(channel, repID, now),
		count,
		dailyLimit,
		weeklyLimit,
		monthlyLimit,
		2*24*3600,  // day TTL with slack
		8*24*3600,  // week TTL
		32*24*3600, // month TTL
	).Slice()
	if err != nil {
		return false, "", fmt.Errorf("capacity check failed: %w", err)
	}

	if result[0].(int64) == 1 {
		return true, "", nil
	}
	switch result[1].(int64) {
	case 1:
		blockedWindow = "daily"
	case 2:
		blockedWindow = "weekly"
	case 3:
		blockedWindow = "monthly"
	}
	return false, blockedWindow, nil
}

// Refund returns count units across all three windows after a failed or
// cancelled booking. Counters never go below zero.
func (l *CapacityLimiter) Refund(ctx context.Context, channel domain.Channel, repID string, count int) error {
	now := time.Now()
	for _, key := range l.keys(channel, repID, now) {
		v, err := l.redis.DecrBy(ctx, key, int64(count)).Result()
		if err != nil {
			return fmt.Errorf("refund capacity: %w", err)
		}
		if v < 0 {
			l.redis.Set(ctx, key, 0, redis.KeepTTL)
		}
	}
	return nil
}

// CurrentUsage returns the limiter's view of the three window counters.
func (l *CapacityLimiter) CurrentUsage(ctx context.Context, channel domain.Channel, repID string) (map[string]int64, error) {
	now := time.Now()
	keys := l.keys(channel, repID, now)
	names := []string{"daily", "weekly", "monthly"}

	usage := make(map[string]int64, 3)
	for i, key := range keys {
		v, err := l.redis.Get(ctx, key).Int64()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("get usage: %w", err)
		}
		usage[names[i]] = v
	}
	return usage, nil
}
