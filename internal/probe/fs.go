package probe

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/galleryscan/internal/naming"
)

// FSChecker probes local files. Only regular files count; directories and
// special files named like candidates are absent.
type FSChecker struct {
	Root   string // optional jail; targets outside it are absent
	Verify bool
}

// Exists reports whether target is a regular file (that decodes, with Verify).
func (c *FSChecker) Exists(ctx context.Context, target string) bool {
	if ctx.Err() != nil {
		return false
	}
	path := filepath.FromSlash(target)
	if c.Root != "" && !IsSubpath(c.Root, path) {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	if !c.Verify {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return Verify(f, naming.ExtOf(path))
}

// IsSubpath ensures child is within root, preventing path traversal.
func IsSubpath(root, child string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absChild, err := filepath.Abs(child)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absChild)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
