package notification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const deliveryTTL = 7 * 24 * time.Hour

// DeliveryLog remembers which recipients already received a message, so a
// redelivered event only goes to the ones that failed.
type DeliveryLog interface {
	Delivered(ctx context.Context, key string) (bool, error)
	MarkDelivered(ctx context.Context, key string) error
}

// DeliveryKey identifies one recipient of one event payload.
func DeliveryKey(eventType string, payload []byte, to string) string {
	sum := sha256.Sum256(payload)
	return "notify:sent:" + eventType + ":" + hex.EncodeToString(sum[:]) + ":" + strings.ToLower(to)
}

type RedisDeliveryLog struct {
	rdb *redis.Client
}

func NewRedisDeliveryLog(rdb *redis.Client) *RedisDeliveryLog {
	return &RedisDeliveryLog{rdb: rdb}
}

func (d *RedisDeliveryLog) Delivered(ctx context.Context, key string) (bool, error) {
	n, err := d.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeliveryLog) MarkDelivered(ctx context.Context, key string) error {
	return d.rdb.Set(ctx, key, "1", deliveryTTL).Err()
}

type noDeliveryLog struct{}

func (noDeliveryLog) Delivered(context.Context, string) (bool, error) { return false, nil }
func (noDeliveryLog) MarkDelivered(context.Context, string) error     { return nil }
