// Package redis provides a stats.Counter shared by every server instance,
// kept as one Redis hash per user.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/config"
	"github.com/phrazzld/studydeck-api/internal/domain"
	"github.com/phrazzld/studydeck-api/internal/stats"
	goredis "github.com/redis/go-redis/v9"
)

const (
	fieldTotal  = "total"
	fieldPassed = "passed"
	fieldFailed = "failed"
)

func qualityField(q int) string {
	return "q" + strconv.Itoa(q)
}

// Counter implements stats.Counter with HINCRBY on "<prefix>:stats:<user>".
type Counter struct {
	rdb    goredis.UniversalClient
	prefix string
	logger *slog.Logger
}

var _ stats.Counter = (*Counter)(nil)

// NewCounter wraps an existing client.
func NewCounter(rdb goredis.UniversalClient, prefix string, logger *slog.Logger) *Counter {
	if rdb == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Counter{
		rdb:    rdb,
		prefix: prefix,
		logger: logger.With(slog.String("component", "redis_counter")),
	}
}

// Dial connects to the server described by cfg and verifies it with PING.
func Dial(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (c *Counter) key(userID uuid.UUID) string {
	return c.prefix + ":stats:" + userID.String()
}

// Record implements stats.Counter. All increments run in one MULTI/EXEC.
func (c *Counter) Record(ctx context.Context, userID uuid.UUID, quality int) error {
	if err := stats.ValidateRecord(userID, quality); err != nil {
		return err
	}

	outcome := fieldFailed
	if quality >= domain.PassingQuality {
		outcome = fieldPassed
	}

	key := c.key(userID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, fieldTotal, 1)
		pipe.HIncrBy(ctx, key, outcome, 1)
		pipe.HIncrBy(ctx, key, qualityField(quality), 1)
		return nil
	})
	if err != nil {
		c.logger.Error("failed to record review count",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return fmt.Errorf("redis record review: %w", err)
	}
	return nil
}

// Summary implements stats.Counter.
func (c *Counter) Summary(ctx context.Context, userID uuid.UUID) (stats.Summary, error) {
	fields, err := c.rdb.HGetAll(ctx, c.key(userID)).Result()
	if err != nil {
		return stats.Summary{}, fmt.Errorf("redis read summary: %w", err)
	}
	return parseSummary(fields)
}

func parseSummary(fields map[string]string) (stats.Summary, error) {
	var s stats.Summary
	read := func(name string, dst *int64) error {
		raw, ok := fields[name]
		if !ok {
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("redis summary field %s: %w", name, err)
		}
		*dst = v
		return nil
	}

	if err := read(fieldTotal, &s.Total); err != nil {
		return stats.Summary{}, err
	}
	if err := read(fieldPassed, &s.Passed); err != nil {
		return stats.Summary{}, err
	}
	if err := read(fieldFailed, &s.Failed); err != nil {
		return stats.Summary{}, err
	}
	for q := domain.MinQuality; q <= domain.MaxQuality; q++ {
		if err := read(qualityField(q), &s.ByQuality[q]); err != nil {
			return stats.Summary{}, err
		}
	}
	return s, nil
}
