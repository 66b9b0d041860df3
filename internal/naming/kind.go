package naming

import "strings"

// Kind classifies a candidate by its extension.
type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindUnknown Kind = "unknown"
)

var imageExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

var videoExtensions = map[string]string{
	"mp4":  "video/mp4",
	"m4v":  "video/mp4",
	"webm": "video/webm",
	"mov":  "video/quicktime",
	"ogv":  "video/ogg",
	"mkv":  "video/x-matroska",
}

// KindOf reports the media kind for an extension (without dot, any case).
func KindOf(ext string) Kind {
	ext = strings.ToLower(ext)
	if _, ok := imageExtensions[ext]; ok {
		return KindImage
	}
	if _, ok := videoExtensions[ext]; ok {
		return KindVideo
	}
	return KindUnknown
}

// ContentTypeFor returns the canonical MIME type for ext, or
// "application/octet-stream" when unknown.
func ContentTypeFor(ext string) string {
	ext = strings.ToLower(ext)
	if ct, ok := imageExtensions[ext]; ok {
		return ct
	}
	if ct, ok := videoExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
