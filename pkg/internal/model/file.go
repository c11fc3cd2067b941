package model

import (
	"time"
)

// File is the metadata record of one uploaded blob. Records are written once
// and never updated; the blob they point at is immutable.
type File struct {
	ID string `gorm:"primaryKey;size:26" json:"id"`
	// <token>-<original name>, unique across the store.
	StoredName   string `gorm:"size:600;uniqueIndex"       json:"stored_name"`
	OriginalName string `gorm:"size:512"                   json:"original_name"`
	OwnerID      string `gorm:"size:64;index:idx_owner_created,priority:1;not null" json:"owner_id"`
	MimeType     string `gorm:"size:255"                   json:"mime_type"`
	SizeBytes    int64  `gorm:"not null;default:0"         json:"size_bytes"`
	// Server-side location of the blob; never serialized to clients.
	StoragePath string    `gorm:"size:1024;not null"                             json:"-"`
	CreatedAt   time.Time `gorm:"index:idx_owner_created,priority:2;index;not null" json:"created_at"`
}

// TableName pins the table name.
func (File) TableName() string { return "files" }
