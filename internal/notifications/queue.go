package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueueKey      = "notifications:mail:queue"
	DefaultDeadLetterKey = "notifications:mail:dead"
)

// ErrQueueEmpty is returned by Pop when nothing arrived within the timeout.
var ErrQueueEmpty = errors.New("notification queue empty")

// Queue is a FIFO of outbound mail kept in a Redis list.
type Queue struct {
	rdb     *redis.Client
	key     string
	deadKey string
}

// NewQueue returns nil when rdb is nil.
func NewQueue(rdb *redis.Client) *Queue {
	if rdb == nil {
		return nil
	}
	return &Queue{rdb: rdb, key: DefaultQueueKey, deadKey: DefaultDeadLetterKey}
}

// deadLetter is what lands on the dead-letter list.
type deadLetter struct {
	Message  Message   `json:"message"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

func (q *Queue) Push(ctx context.Context, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return q.rdb.LPush(ctx, q.key, b).Err()
}

// Pop blocks up to timeout for the oldest message.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (Message, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return Message{}, ErrQueueEmpty
	}
	if err != nil {
		return Message{}, err
	}
	// BRPOP replies [key, value]
	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return Message{}, fmt.Errorf("decode notification: %w", err)
	}
	return msg, nil
}

// DeadLetter records a message that could not be delivered.
func (q *Queue) DeadLetter(ctx context.Context, msg Message, cause error) error {
	b, err := json.Marshal(deadLetter{Message: msg, Error: cause.Error(), FailedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.deadKey, b).Err()
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

func (q *Queue) DeadLen(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.deadKey).Result()
}
