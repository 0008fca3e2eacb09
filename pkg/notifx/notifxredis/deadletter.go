package notifxredis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ucbscz/registro/pkg/notifx"
)

// RedisDeadLetter stores exhausted callback notifications in a Redis list so
// an operator can inspect or replay them.
type RedisDeadLetter struct {
	rdb *redis.Client
	key string
}

var _ notifx.DeadLetterSink = (*RedisDeadLetter)(nil)

// NewRedisDeadLetter creates a dead-letter sink on the given list key.
func NewRedisDeadLetter(rdb *redis.Client, key string) *RedisDeadLetter {
	if key == "" {
		key = "registro:callbacks:dead"
	}
	return &RedisDeadLetter{rdb: rdb, key: key}
}

type deadEntry struct {
	CallbackURL  string              `json:"callback_url"`
	Notification notifx.Notification `json:"notification"`
	Reason       string              `json:"reason"`
	FailedAt     time.Time           `json:"failed_at"`
}

// DeadLetter appends the notification to the dead-letter list.
func (d *RedisDeadLetter) DeadLetter(ctx context.Context, callbackURL string, n notifx.Notification, reason string) error {
	data, err := json.Marshal(deadEntry{
		CallbackURL:  callbackURL,
		Notification: n,
		Reason:       reason,
		FailedAt:     time.Now().UTC(),
	})
	if err != nil {
		return notifx.Errors().NewWithCause(notifx.ErrDelivery, err)
	}
	return d.rdb.LPush(ctx, d.key, data).Err()
}
