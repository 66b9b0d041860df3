package logging

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/backmassage/galleryscan/internal/config"
)

// palette maps log levels to ANSI sequences. The zero palette is plain text.
type palette struct {
	info, success, warn, err, debug string
	accent                          string
	reset                           string
}

var ansiPalette = palette{
	info:    "\033[1;94m",
	success: "\033[1;92m",
	warn:    "\033[1;93m",
	err:     "\033[1;91m",
	debug:   "\033[1;96m",
	accent:  "\033[1;95m",
	reset:   "\033[0m",
}

// colors holds the active palette; nil means plain.
var colors atomic.Pointer[palette]

func activePalette() palette {
	if p := colors.Load(); p != nil {
		return *p
	}
	return palette{}
}

func (p palette) level(level string) string {
	switch level {
	case "INFO":
		return p.info
	case "SUCCESS":
		return p.success
	case "WARN":
		return p.warn
	case "ERROR":
		return p.err
	case "DEBUG":
		return p.debug
	}
	return ""
}

// SetColorMode selects the colored or plain palette for stderr output. Auto
// enables colors only on a terminal, honouring NO_COLOR and TERM=dumb.
// NewLogger calls it; tests may call it directly.
func SetColorMode(mode config.ColorMode) {
	if wantColors(mode) {
		p := ansiPalette
		colors.Store(&p)
		return
	}
	colors.Store(nil)
}

// ColorsEnabled reports whether the colored palette is active.
func ColorsEnabled() bool { return colors.Load() != nil }

// Accent wraps s in the banner color when colors are enabled.
func Accent(s string) string {
	p := activePalette()
	if p.accent == "" {
		return s
	}
	return p.accent + s + p.reset
}

func wantColors(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return IsTerminal(os.Stderr) &&
		os.Getenv("NO_COLOR") == "" &&
		strings.ToLower(os.Getenv("TERM")) != "dumb"
}

// IsTerminal reports whether f is a character device.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
