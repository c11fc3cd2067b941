// Package events consumes the file domain events inside the process. The
// usage consumer keeps the stored and deleted counters of pkg/metrics in
// step with the events actually delivered by the queue.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	mqc "github.com/yeisme/filevault/pkg/internal/storage/mq"
	"github.com/yeisme/filevault/pkg/log"
	appmetrics "github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/queue"
)

const closeTimeout = 5 * time.Second

// Handler names.
const (
	HandlerUsageStored  = "usage.file_stored"
	HandlerUsageDeleted = "usage.file_deleted"
	HandlerAuditOrphans = "audit.orphan_removed"
)

// Consumer runs the watermill router of the usage handlers.
type Consumer struct {
	router  *message.Router
	metrics *appmetrics.Metrics
	logger  *zerolog.Logger
}

// NewConsumer wires the handlers onto the subscriber of client. registry,
// when non-nil, receives the router metrics.
func NewConsumer(client *mqc.Client, m *appmetrics.Metrics, registry prometheus.Registerer) (*Consumer, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: closeTimeout}, client.Logger())
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
	)

	if registry != nil {
		metrics.NewPrometheusMetricsBuilder(registry, "filevault", "events").AddPrometheusRouterMetrics(router)
	}

	c := &Consumer{router: router, metrics: m, logger: log.Logger()}

	sub := client.Subscriber()
	router.AddNoPublisherHandler(HandlerUsageStored, queue.TopicFileStored, sub, c.handleStored)
	router.AddNoPublisherHandler(HandlerUsageDeleted, queue.TopicFileDeleted, sub, c.handleDeleted)
	router.AddNoPublisherHandler(HandlerAuditOrphans, queue.TopicFileOrphanRemoved, sub, c.handleOrphan)

	return c, nil
}

// Run blocks until ctx is done or the router fails.
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

// Close stops the router.
func (c *Consumer) Close() error {
	return c.router.Close()
}

func (c *Consumer) handleStored(msg *message.Message) error {
	env, err := queue.ParseFileStored(msg)
	if err != nil {
		c.logger.Warn().Err(err).Str("msg_id", msg.UUID).Msg("drop malformed stored event")
		return nil
	}

	c.metrics.ObserveStored(env.Payload.File.SizeBytes)
	c.logger.Debug().Str("file_id", env.Payload.File.ID).Int64("size", env.Payload.File.SizeBytes).Msg("file stored")

	return nil
}

func (c *Consumer) handleDeleted(msg *message.Message) error {
	env, err := queue.ParseFileDeleted(msg)
	if err != nil {
		c.logger.Warn().Err(err).Str("msg_id", msg.UUID).Msg("drop malformed deleted event")
		return nil
	}

	c.metrics.ObserveDeleted()
	c.logger.Debug().Str("file_id", env.Payload.File.ID).Msg("file deleted")

	return nil
}

func (c *Consumer) handleOrphan(msg *message.Message) error {
	env, err := queue.ParseOrphanRemoved(msg)
	if err != nil {
		c.logger.Warn().Err(err).Str("msg_id", msg.UUID).Msg("drop malformed orphan event")
		return nil
	}

	ev := c.logger.Info().Str("reason", env.Payload.Reason)
	if env.Payload.File != nil {
		ev = ev.Str("file_id", env.Payload.File.ID).Str("owner_id", env.Payload.File.OwnerID)
	} else {
		ev = ev.Str("stored_name", env.Payload.StoredName)
	}

	ev.Msg("orphan removed")

	return nil
}
