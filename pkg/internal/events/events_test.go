package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/events"
	mqc "github.com/yeisme/filevault/pkg/internal/storage/mq"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/queue"
)

func TestUsageConsumerCountsEvents(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	client := mqc.NewFromPubSub(configs.MQTypeGoChannel, pubsub, pubsub)
	t.Cleanup(func() { _ = client.Close() })

	m := metrics.New(configs.MetricsConfig{})

	consumer, err := events.NewConsumer(client, m, m.Registry)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = consumer.Run(ctx) }()

	select {
	case <-consumer.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	ref := queue.FileRef{ID: "01J", OwnerID: "u1", StoredName: "tok-a.txt", OriginalName: "a.txt", MimeType: "text/plain", SizeBytes: 10}
	require.NoError(t, queue.PublishFileStored(pubsub, queue.FileStoredPayload{File: ref}))
	require.NoError(t, queue.PublishFileStored(pubsub, queue.FileStoredPayload{File: ref}))
	require.NoError(t, queue.PublishFileDeleted(pubsub, queue.FileDeletedPayload{File: ref}))
	require.NoError(t, queue.PublishOrphanRemoved(pubsub, queue.OrphanRemovedPayload{StoredName: "x", Reason: queue.ReasonMissingRecord}))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.FilesStored) == 2 &&
			testutil.ToFloat64(m.BytesStored) == 20 &&
			testutil.ToFloat64(m.FilesDeleted) == 1
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, consumer.Close())
}
