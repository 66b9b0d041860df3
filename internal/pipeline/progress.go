package pipeline

import (
	"fmt"
	"io"
	"strings"
)

const progressWidth = 80

// progress shows a live scan counter. On a TTY it writes an inline
// \r-overwritten line; otherwise it is a no-op (the summary and debug
// lines already provide enough breadcrumbs in piped/logged output).
type progress struct {
	w       io.Writer
	enabled bool
	found   int
	drawn   bool
}

func newProgress(w io.Writer, enabled bool) *progress {
	return &progress{w: w, enabled: enabled}
}

// update redraws the line after batch b of a scan bounded by maxIndex.
func (p *progress) update(b BatchReport, maxIndex int) {
	p.found += len(b.Found)
	if !p.enabled {
		return
	}
	pct := 0
	if maxIndex > 0 {
		pct = b.Last * 100 / maxIndex
	}
	status := fmt.Sprintf("  Scanning [%d/%d] %d%%  batch %d, %d found", b.Last, maxIndex, pct, b.Number, p.found)

	// Pad to overwrite previous longer lines, then \r.
	if len(status) < progressWidth {
		status += strings.Repeat(" ", progressWidth-len(status))
	}
	fmt.Fprintf(p.w, "\r%s", status)
	p.drawn = true
}

// clear erases the inline progress line if one was drawn.
func (p *progress) clear() {
	if !p.drawn {
		return
	}
	fmt.Fprintf(p.w, "\r%s\r", strings.Repeat(" ", progressWidth))
	p.drawn = false
}
