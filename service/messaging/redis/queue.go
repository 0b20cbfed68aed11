// Package redis implements messaging.Queue over a Redis pub/sub channel.
// Pub/sub is fire-and-forget: a message published while no consumer is
// subscribed is lost.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/service/messaging"
)

// DefaultChannel is the decision channel name.
const DefaultChannel = "crier:decisions"

// Config configures the queue.
type Config struct {
	Channel    string
	MaxRetries int
}

// Queue publishes bare JSON payloads and consumes them from a subscription
// opened at construction. Redelivery counts are kept in memory per payload.
type Queue[T any] struct {
	client  *goredis.Client
	config  Config
	sub     *goredis.PubSub
	ch      <-chan *goredis.Message
	logger  logrus.FieldLogger
	mu      sync.Mutex
	retries map[string]int
	closed  bool
}

// Option customises a Queue.
type Option[T any] func(*Queue[T])

// WithLogger sets the logger for dropped payloads.
func WithLogger[T any](logger logrus.FieldLogger) Option[T] {
	return func(q *Queue[T]) { q.logger = logger }
}

// NewQueue subscribes to the configured channel and waits for confirmation.
func NewQueue[T any](ctx context.Context, client *goredis.Client, config Config, opts ...Option[T]) (*Queue[T], error) {
	if client == nil {
		return nil, fmt.Errorf("redis client was nil")
	}
	if config.Channel == "" {
		config.Channel = DefaultChannel
	}
	q := &Queue[T]{client: client, config: config, retries: map[string]int{}}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = logging.OrDiscard(q.logger)
	q.sub = client.Subscribe(ctx, config.Channel)
	if _, err := q.sub.Receive(ctx); err != nil {
		_ = q.sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", config.Channel, err)
	}
	q.ch = q.sub.Channel()
	return q, nil
}

// Publish sends t to the channel.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.publish(ctx, string(payload))
}

func (q *Queue[T]) publish(ctx context.Context, payload string) error {
	return q.client.Publish(ctx, q.config.Channel, payload).Err()
}

// retry counts a redelivery of payload and reports whether it is still allowed.
func (q *Queue[T]) retry(payload string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	count := q.retries[payload]
	if count >= q.config.MaxRetries {
		delete(q.retries, payload)
		return false
	}
	q.retries[payload] = count + 1
	return true
}

func (q *Queue[T]) forget(payload string) {
	q.mu.Lock()
	delete(q.retries, payload)
	q.mu.Unlock()
}

// Consume blocks until a decodable payload arrives.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok := <-q.ch:
			if !ok {
				return nil, messaging.ErrClosed
			}
			var data T
			if err := json.Unmarshal([]byte(msg.Payload), &data); err != nil {
				q.logger.WithError(err).WithField("channel", msg.Channel).Warn("dropping undecodable payload")
				continue
			}
			return &Message[T]{data: data, payload: msg.Payload, queue: q}, nil
		}
	}
}

// Close unsubscribes; the client is owned by the caller.
func (q *Queue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	return q.sub.Close()
}

// Message is a received payload.
type Message[T any] struct {
	data      T
	payload   string
	queue     *Queue[T]
	mu        sync.Mutex
	processed bool
}

// T returns the payload.
func (m *Message[T]) T() *T { return &m.data }

// Ack marks the message processed.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrAlreadyProcessed
	}
	m.processed = true
	m.queue.forget(m.payload)
	return nil
}

// Nack republishes the payload until MaxRetries is exceeded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrAlreadyProcessed
	}
	m.processed = true
	if !m.queue.retry(m.payload) {
		m.queue.logger.WithError(err).Warn("dropping message after retries")
		return nil
	}
	return m.queue.publish(context.Background(), m.payload)
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
