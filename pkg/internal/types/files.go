package types

import (
	"time"

	"github.com/yeisme/filevault/pkg/internal/model"
)

const fallbackMimeType = "application/octet-stream"

// UploadResult is the data of a successful upload.
type UploadResult struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
}

// FileSummary is one entry of the file listing.
type FileSummary struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	UploadedAt   string `json:"uploadedAt"`
	UserID       string `json:"userId"`
}

// NewFileSummary renders f, filling absent optional fields.
func NewFileSummary(f model.File) FileSummary {
	s := FileSummary{
		ID:           f.ID,
		Filename:     f.StoredName,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		Size:         f.SizeBytes,
		UploadedAt:   f.CreatedAt.UTC().Format(time.RFC3339),
		UserID:       f.OwnerID,
	}

	if s.OriginalName == "" {
		s.OriginalName = f.StoredName
	}

	if s.MimeType == "" {
		s.MimeType = fallbackMimeType
	}

	if s.Size < 0 {
		s.Size = 0
	}

	return s
}

// NewFileSummaries renders files in order.
func NewFileSummaries(files []model.File) []FileSummary {
	out := make([]FileSummary, 0, len(files))
	for _, f := range files {
		out = append(out, NewFileSummary(f))
	}

	return out
}
