// Package mq opens the watermill publisher and subscriber for the configured
// backend. Backends register a Factory for their configs.MQType from init.
//
// Supported backends:
//   - gochannel: in-process, the default
//   - nats: NATS core or JetStream
//   - redis: Redis pub/sub
//
// Example:
//
//	client, err := mq.New(ctx, &cfg.MQ, registry)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	msg, _ := queue.NewWatermillMessage(queue.TopicFileStored, payload)
//	_ = client.Publish(ctx, queue.TopicFileStored, msg)
package mq

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/filevault/pkg/configs"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// Factory creates the publisher and subscriber of a backend.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory registers the factory of a backend.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// GetRegisteredMQTypes lists the compiled-in backends, sorted.
func GetRegisteredMQTypes() []configs.MQType {
	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}

// Client bundles the publisher and subscriber.
type Client struct {
	Type       configs.MQType
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter

	closeOnce sync.Once
	closeErr  error
}

// New opens the configured backend. When registry is non-nil the publisher
// and subscriber are decorated with watermill's prometheus metrics.
func New(ctx context.Context, cfg *configs.MQConfig, registry prometheus.Registerer) (*Client, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(nlog.Logger())

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	if registry != nil {
		builder := metrics.NewPrometheusMetricsBuilder(registry, "filevault", "mq")

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Msg("mq initialized")

	return &Client{Type: cfg.Type, publisher: pub, subscriber: sub, logger: logger}, nil
}

// NewFromPubSub wraps an existing publisher and subscriber.
func NewFromPubSub(t configs.MQType, pub message.Publisher, sub message.Subscriber) *Client {
	return &Client{Type: t, publisher: pub, subscriber: sub, logger: NewLoggerAdapter(nlog.Logger())}
}

// Publisher returns the underlying publisher.
func (c *Client) Publisher() message.Publisher { return c.publisher }

// Subscriber returns the underlying subscriber.
func (c *Client) Subscriber() message.Subscriber { return c.subscriber }

// Logger returns the watermill logger adapter.
func (c *Client) Logger() watermill.LoggerAdapter { return c.logger }

// Publish sends msgs to topic.
func (c *Client) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return errors.New("mq publisher not initialized")
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe returns the message channel of topic.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, errors.New("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Close closes the publisher and the subscriber once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		var errs []error

		if c.publisher != nil {
			errs = append(errs, c.publisher.Close())
		}

		if c.subscriber != nil && any(c.subscriber) != any(c.publisher) {
			errs = append(errs, c.subscriber.Close())
		}

		c.closeErr = errors.Join(errs...)
	})

	return c.closeErr
}
