package queue

import "time"

// EventHeader is the metadata common to every event.
type EventHeader struct {
	// Topic repeats the subject so that dumped messages stay self-describing.
	Topic      string    `json:"topic"`
	TraceID    string    `json:"trace_id,omitempty"`
	Producer   string    `json:"producer,omitempty"`
	OccurredAt time.Time `json:"occurred_at"` // UTC
	Version    string    `json:"version,omitempty"`
}

// Message is the envelope of every event.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileRef identifies a file record. The storage path is never included.
type FileRef struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner_id"`
	StoredName   string `json:"stored_name"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
}

// FileStoredPayload is published after a successful upload.
type FileStoredPayload struct {
	File FileRef `json:"file"`
}

// FileDeletedPayload is published after a successful delete.
type FileDeletedPayload struct {
	File FileRef `json:"file"`
}

// Orphan removal reasons.
const (
	ReasonMissingBlob   = "missing_blob"   // record whose blob is gone
	ReasonMissingRecord = "missing_record" // blob no record points at
)

// OrphanRemovedPayload is published by the cleanup job. File is set for a
// removed record, StoredName for a removed blob.
type OrphanRemovedPayload struct {
	File       *FileRef `json:"file,omitempty"`
	StoredName string   `json:"stored_name,omitempty"`
	Reason     string   `json:"reason"`
}
