package service

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// allowedTypes is the closed set of accepted upload types.
var allowedTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"image/svg+xml":      {},
	"image/webp":         {},
	"application/pdf":    {},
	"text/plain":         {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// AllowedTypes lists the accepted upload types.
func AllowedTypes() []string {
	out := make([]string, 0, len(allowedTypes))
	for t := range allowedTypes {
		out = append(out, t)
	}

	return out
}

// NormalizeMimeType strips parameters and lower-cases t. It returns "" when
// t is not a media type.
func NormalizeMimeType(t string) string {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(t))
	if err != nil {
		return ""
	}

	return strings.ToLower(mediaType)
}

// IsAllowedType reports whether the declared type t is accepted.
func IsAllowedType(t string) bool {
	_, ok := allowedTypes[NormalizeMimeType(t)]

	return ok
}

// contentAllowed reports whether the detected type of data, or one of its
// parents, is accepted. A .docx is detected as a zip first, so the whole
// hierarchy is checked.
func contentAllowed(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if IsAllowedType(m.String()) {
			return true
		}
	}

	return false
}
