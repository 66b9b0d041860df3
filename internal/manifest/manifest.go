// Package manifest renders a discovery result as text, JSON, or an M3U
// playlist and delivers it to stdout, a local file, or an S3 object.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/backmassage/galleryscan/internal/config"
	"github.com/backmassage/galleryscan/internal/pipeline"
)

// Manifest is the serialized form of one scan.
type Manifest struct {
	Base        string              `json:"base"`
	Extensions  []string            `json:"extensions"`
	MaxIndex    int                 `json:"max_index"`
	BatchSize   int                 `json:"batch_size"`
	GeneratedAt time.Time           `json:"generated_at"`
	Items       []pipeline.Item     `json:"items"`
	Stats       pipeline.RunStats   `json:"stats"`
	Stop        pipeline.StopReason `json:"stop"`
}

// New builds a manifest for req and its result, stamped with the current
// UTC time.
func New(req pipeline.Request, res pipeline.Result) Manifest {
	items := res.Items
	if items == nil {
		items = []pipeline.Item{}
	}
	return Manifest{
		Base:        req.Base,
		Extensions:  append([]string(nil), req.Extensions...),
		MaxIndex:    req.MaxIndex,
		BatchSize:   req.BatchSize,
		GeneratedAt: time.Now().UTC(),
		Items:       items,
		Stats:       res.Stats,
		Stop:        res.Stop,
	}
}

// Encode writes m to w in the given format.
func Encode(w io.Writer, m Manifest, format config.OutputFormat) error {
	switch format {
	case config.FormatText, "":
		var b strings.Builder
		for _, it := range m.Items {
			b.WriteString(it.Path)
			b.WriteByte('\n')
		}
		_, err := io.WriteString(w, b.String())
		return err
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(&m)
	case config.FormatM3U:
		var b strings.Builder
		b.WriteString("#EXTM3U\n")
		for _, it := range m.Items {
			fmt.Fprintf(&b, "#EXTINF:-1,%d.%s\n%s\n", it.Index, it.Ext, it.Path)
		}
		_, err := io.WriteString(w, b.String())
		return err
	default:
		return fmt.Errorf("unsupported manifest format %q", format)
	}
}

// ContentType returns the MIME type served or uploaded for format.
func ContentType(format config.OutputFormat) string {
	switch format {
	case config.FormatJSON:
		return "application/json"
	case config.FormatM3U:
		return "audio/x-mpegurl"
	default:
		return "text/plain; charset=utf-8"
	}
}
