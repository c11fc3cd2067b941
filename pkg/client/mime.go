package client

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMimeType returns the media type of name by extension, falling back
// to sniffing data. Parameters such as charset are dropped.
func DetectMimeType(name string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
	}

	mt, _, err := mime.ParseMediaType(mimetype.Detect(data).String())
	if err != nil {
		return "application/octet-stream"
	}

	return mt
}
