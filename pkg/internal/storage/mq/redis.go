package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/filevault/pkg/configs"
)

// DefaultChannelBufferSize is the per-subscription output buffer.
const DefaultChannelBufferSize = 100

// redisEnvelope carries the watermill message identity and metadata over a
// Redis pub/sub channel, which only transports a payload.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// RedisPublisher publishes to Redis pub/sub channels named after the topic.
type RedisPublisher struct {
	client *redis.Client
}

// RedisSubscriber delivers Redis pub/sub messages one at a time, waiting for
// each to be acked or nacked. Pub/sub has no redelivery, so a nack is
// logged and dropped.
type RedisSubscriber struct {
	client *redis.Client
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	subs    []*redis.PubSub
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

func redisFactory(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	opts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	pubClient := redis.NewClient(opts)
	if err := pubClient.Ping(ctx).Err(); err != nil {
		_ = pubClient.Close()

		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	sub := &RedisSubscriber{
		client:  redis.NewClient(opts),
		logger:  logger,
		closeCh: make(chan struct{}),
	}

	return &RedisPublisher{client: pubClient}, sub, nil
}

func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		data, err := sonic.Marshal(redisEnvelope{
			UUID:     msg.UUID,
			Metadata: msg.Metadata,
			Payload:  msg.Payload,
		})
		if err != nil {
			return fmt.Errorf("marshal message %s: %w", msg.UUID, err)
		}

		if err := p.client.Publish(msg.Context(), topic, data).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}

	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("redis subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()

		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)

	out := make(chan *message.Message, DefaultChannelBufferSize)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		in := ps.Channel()

		for {
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}

				if !s.deliver(ctx, topic, raw.Payload, out) {
					return
				}
			}
		}
	}()

	return out, nil
}

// deliver hands one message to the consumer and waits for its ack. It
// returns false when the subscriber is shutting down.
func (s *RedisSubscriber) deliver(ctx context.Context, topic, raw string, out chan<- *message.Message) bool {
	var env redisEnvelope
	if err := sonic.UnmarshalString(raw, &env); err != nil {
		s.logger.Error("drop undecodable redis message", err, watermill.LogFields{"topic": topic})

		return true
	}

	msg := message.NewMessage(env.UUID, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	msgCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	msg.SetContext(msgCtx)

	select {
	case out <- msg:
	case <-s.closeCh:
		return false
	case <-ctx.Done():
		return false
	}

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		s.logger.Info("redis message nacked, not redelivered", watermill.LogFields{"topic": topic, "uuid": msg.UUID})
	case <-s.closeCh:
		return false
	case <-ctx.Done():
		return false
	}

	return true
}

func (s *RedisSubscriber) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	close(s.closeCh)

	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	var errs []error
	for _, ps := range subs {
		errs = append(errs, ps.Close())
	}

	s.wg.Wait()

	errs = append(errs, s.client.Close())

	return errors.Join(errs...)
}
