package logging

import (
	"os"
	"strings"
	"testing"

	"github.com/backmassage/galleryscan/internal/config"
)

func TestSetColorMode(t *testing.T) {
	SetColorMode(config.ColorAlways)
	if !ColorsEnabled() || !strings.HasPrefix(Accent("x"), "\033[") {
		t.Error("ColorAlways should enable colors")
	}
	SetColorMode(config.ColorNever)
	if ColorsEnabled() || Accent("x") != "x" {
		t.Error("ColorNever should leave text plain")
	}
}

func TestSetColorMode_AutoHonoursNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	SetColorMode(config.ColorAuto)
	if ColorsEnabled() {
		t.Error("NO_COLOR should disable colors in auto mode")
	}
}

func TestLogger_ColoredLevelTag(t *testing.T) {
	l, buf := newTestLogger(t, func(c *config.Config) { c.ColorMode = config.ColorAlways })
	t.Cleanup(func() { SetColorMode(config.ColorNever) })
	l.Warn("careful")
	want := ansiPalette.warn + "[WARN]" + ansiPalette.reset + " careful"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("output %q does not contain %q", buf.String(), want)
	}
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "tty")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("a regular file is not a terminal")
	}
	if IsTerminal(nil) {
		t.Error("nil file is not a terminal")
	}
}
