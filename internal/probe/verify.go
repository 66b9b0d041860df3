package probe

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/backmassage/galleryscan/internal/naming"
)

// sniffLen is the prefix size http.DetectContentType considers.
const sniffLen = 512

// Verify reports whether r starts with a payload of the media kind implied by
// ext. Images must decode their header (any registered format: a PNG named
// .jpg still renders in a browser). Videos must carry a recognizable
// container signature. Unknown kinds pass.
func Verify(r io.Reader, ext string) bool {
	switch naming.KindOf(ext) {
	case naming.KindImage:
		_, _, err := image.DecodeConfig(r)
		return err == nil
	case naming.KindVideo:
		head := make([]byte, sniffLen)
		n, _ := io.ReadFull(r, head)
		return looksLikeVideo(head[:n])
	default:
		return true
	}
}

func looksLikeVideo(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	// ISO base media (mp4, m4v, mov): size box then "ftyp"; QuickTime may
	// start with "moov"/"mdat"/"wide" instead.
	if len(head) >= 8 {
		switch string(head[4:8]) {
		case "ftyp", "moov", "mdat", "wide", "free":
			return true
		}
	}
	ct := http.DetectContentType(head)
	return strings.HasPrefix(ct, "video/") || ct == "application/ogg"
}
