// Package queue carries work items between the Dispatcher and the Worker
// pool. Grounded on the teacher's messaging package (Producer/Consumer/
// ProducerConsumerCloser over raw []byte), generalized from an untyped byte
// bus to one carrying model.WorkItem, with both an in-memory channel-backed
// implementation (for tests and single-process runs) and a Redis-list-backed
// one for multi-process deployments.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/corvuscrawl/seeker/internal/crawl/model"
)

// Producer enqueues a work item.
type Producer interface {
	Produce(ctx context.Context, item model.WorkItem) error
}

// Consumer dequeues work items, blocking until one is available or ctx is
// cancelled.
type Consumer interface {
	Consume(ctx context.Context) (model.WorkItem, error)
}

// ProducerConsumer combines both roles, as the Dispatcher and Worker each
// need only half of it.
type ProducerConsumer interface {
	Producer
	Consumer
}

// ProducerConsumerCloser is a ProducerConsumer requiring external resource
// cleanup (a channel, a connection).
type ProducerConsumerCloser interface {
	ProducerConsumer
	Close()
}

// ChannelQueue is a single-process, in-memory ProducerConsumerCloser backed
// by a Go channel.
type ChannelQueue struct {
	bus chan model.WorkItem
}

// NewChannelQueue creates a ChannelQueue with the given buffer size.
func NewChannelQueue(buffer int) *ChannelQueue {
	return &ChannelQueue{bus: make(chan model.WorkItem, buffer)}
}

// Produce sends item onto the channel, respecting ctx cancellation.
func (c *ChannelQueue) Produce(ctx context.Context, item model.WorkItem) error {
	select {
	case c.bus <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume receives the next item, respecting ctx cancellation.
func (c *ChannelQueue) Consume(ctx context.Context) (model.WorkItem, error) {
	select {
	case item, ok := <-c.bus:
		if !ok {
			return model.WorkItem{}, fmt.Errorf("queue: channel closed")
		}
		return item, nil
	case <-ctx.Done():
		return model.WorkItem{}, ctx.Err()
	}
}

// Close closes the underlying channel. Producers must not call Produce
// after Close.
func (c *ChannelQueue) Close() { close(c.bus) }

// redisQueueKey is the Redis list holding pending work items.
const redisQueueKey = "crawl:workqueue"

// RedisQueue is a multi-process ProducerConsumerCloser backed by a Redis
// list, using LPUSH/BRPOP so multiple dispatcher/worker processes can share
// one queue.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue creates a RedisQueue over client.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

// Produce JSON-encodes item and pushes it onto the list.
func (q *RedisQueue) Produce(ctx context.Context, item model.WorkItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("queue: encode work item: %w", err)
	}
	return q.client.LPush(ctx, redisQueueKey, data).Err()
}

// Consume blocks on BRPOP until a work item is available or ctx is
// cancelled.
func (q *RedisQueue) Consume(ctx context.Context) (model.WorkItem, error) {
	result, err := q.client.BRPop(ctx, 0, redisQueueKey).Result()
	if err != nil {
		return model.WorkItem{}, fmt.Errorf("queue: brpop: %w", err)
	}
	if len(result) != 2 {
		return model.WorkItem{}, fmt.Errorf("queue: unexpected brpop reply")
	}
	var item model.WorkItem
	if err := json.Unmarshal([]byte(result[1]), &item); err != nil {
		return model.WorkItem{}, fmt.Errorf("queue: decode work item: %w", err)
	}
	return item, nil
}

// Close is a no-op: the Redis client's lifecycle is managed by its owner.
func (q *RedisQueue) Close() {}
