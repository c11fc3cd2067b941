// Package queue defines the domain events of the file service and their
// wire encoding on top of watermill.
//
// Every message body is a sonic-encoded JSON envelope:
//
//	{
//	  "header": {
//	    "topic": "fv.file.stored",
//	    "trace_id": "4bf92f3577b34da6a3ce929d0e0e4736",
//	    "producer": "filevault",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": {"file": {"id": "01J...", "owner_id": "01J...", ...}}
//	}
//
// The header fields are mirrored into the watermill metadata so that
// middleware can route on them without decoding the body.
//
// Publishing:
//
//	err := queue.PublishFileStored(pub, queue.FileStoredPayload{File: ref},
//		queue.WithTraceID(traceID), queue.WithProducer("filevault"))
//
// Consuming:
//
//	env, err := queue.ParseFileStored(msg)
package queue

import (
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

const (
	PayloadVersionV1 string = "v1"
)

// NewEventHeader builds a header stamped with the current UTC time.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID sets the trace id.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer sets the producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode marshals an envelope.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode unmarshals an envelope.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage wraps payload in an envelope and a watermill message.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)
	env := Message[T]{Header: header, Payload: payload}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))
	msg.Metadata.Set("version", header.Version)

	return msg, nil
}

// ParseWatermillMessage decodes the envelope of msg.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}

func publish[T any](pub message.Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// PublishFileStored publishes fv.file.stored.
func PublishFileStored(pub message.Publisher, payload FileStoredPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicFileStored, payload, opts...)
}

// PublishFileDeleted publishes fv.file.deleted.
func PublishFileDeleted(pub message.Publisher, payload FileDeletedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicFileDeleted, payload, opts...)
}

// PublishOrphanRemoved publishes fv.file.orphan_removed.
func PublishOrphanRemoved(pub message.Publisher, payload OrphanRemovedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicFileOrphanRemoved, payload, opts...)
}

func ParseFileStored(msg *message.Message) (Message[FileStoredPayload], error) {
	return ParseWatermillMessage[FileStoredPayload](msg)
}

func ParseFileDeleted(msg *message.Message) (Message[FileDeletedPayload], error) {
	return ParseWatermillMessage[FileDeletedPayload](msg)
}

func ParseOrphanRemoved(msg *message.Message) (Message[OrphanRemovedPayload], error) {
	return ParseWatermillMessage[OrphanRemovedPayload](msg)
}
