package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filevault/pkg/queue"
)

func TestEnvelopeEncoding(t *testing.T) {
	ref := queue.FileRef{ID: "01J", OwnerID: "u1", StoredName: "x-a.txt", OriginalName: "a.txt", MimeType: "text/plain", SizeBytes: 10}

	msg, err := queue.NewWatermillMessage(queue.TopicFileStored, queue.FileStoredPayload{File: ref},
		queue.WithTraceID("trace-1"), queue.WithProducer("filevault"))
	require.NoError(t, err)

	assert.Equal(t, queue.TopicFileStored, msg.Metadata.Get("topic"))
	assert.Equal(t, "trace-1", msg.Metadata.Get("trace_id"))
	assert.Equal(t, queue.PayloadVersionV1, msg.Metadata.Get("version"))

	var raw map[string]map[string]any
	require.NoError(t, sonic.Unmarshal(msg.Payload, &raw))
	assert.Equal(t, "fv.file.stored", raw["header"]["topic"])
	assert.Equal(t, "filevault", raw["header"]["producer"])

	file, ok := raw["payload"]["file"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a.txt", file["original_name"])
	assert.NotContains(t, file, "storage_path")

	env, err := queue.ParseFileStored(msg)
	require.NoError(t, err)
	assert.Equal(t, ref, env.Payload.File)
	assert.Equal(t, time.UTC, env.Header.OccurredAt.Location())
}

func TestPublishAndConsume(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubsub.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := pubsub.Subscribe(ctx, queue.TopicFileOrphanRemoved)
	require.NoError(t, err)

	require.NoError(t, queue.PublishOrphanRemoved(pubsub, queue.OrphanRemovedPayload{
		StoredName: "x-a.txt",
		Reason:     queue.ReasonMissingRecord,
	}))

	select {
	case msg := <-ch:
		env, err := queue.ParseOrphanRemoved(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Nil(t, env.Payload.File)
		assert.Equal(t, "x-a.txt", env.Payload.StoredName)
		assert.Equal(t, queue.ReasonMissingRecord, env.Payload.Reason)
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}
