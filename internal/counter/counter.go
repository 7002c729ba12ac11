package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// InvoiceCounter hands out monotonic, unique invoice numbers. Finalized
// sales are keyed by these, which is what makes retried persistence
// idempotent.
type InvoiceCounter interface {
	Next(ctx context.Context) (string, error)
}

// RedisCounter issues numbers of the form INV-YYYYMMDD-NNNN from a
// per-day Redis counter. The daily keys expire on their own two days
// after first use.
type RedisCounter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{
		client: client,
		prefix: "invoice-seq",
		now:    time.Now,
	}
}

func (c *RedisCounter) Next(ctx context.Context) (string, error) {
	day := c.now().Format("20060102")
	key := fmt.Sprintf("%s:%s", c.prefix, day)

	seq, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("invoice counter incr failed: %w", err)
	}

	if seq == 1 {
		if errExpire := c.client.Expire(ctx, key, 48*time.Hour).Err(); errExpire != nil {
			return "", fmt.Errorf("invoice counter expire failed: %w", errExpire)
		}
	}

	return fmt.Sprintf("INV-%s-%04d", day, seq), nil
}
