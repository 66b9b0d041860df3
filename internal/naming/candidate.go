package naming

import (
	"path"
	"strconv"
	"strings"
)

// CandidatePath joins base and "<index>.<ext>" with exactly one "/". The
// trailing separator on base is implied; an empty base yields a relative
// name. Query strings and fragments on URL bases are not supported.
func CandidatePath(base string, index int, ext string) string {
	name := strconv.Itoa(index) + "." + ext
	if base == "" {
		return name
	}
	if strings.HasSuffix(base, "/") {
		return base + name
	}
	return base + "/" + name
}

// ParseCandidate is the inverse of CandidatePath for a single file name
// (directory components are ignored). It reports ok=false for names that are
// not "<positive int>.<ext>", including zero-padded indices like "01.jpg"
// that the scanner would never request.
func ParseCandidate(name string) (index int, ext string, ok bool) {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	dot := strings.IndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return 0, "", false
	}
	digits, ext := name[:dot], name[dot+1:]
	if digits[0] == '0' || strings.Contains(ext, ".") {
		return 0, "", false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, "", false
	}
	return n, ext, true
}

// NormalizeExtensions canonicalizes an extension precedence list: entries are
// trimmed, lower-cased and stripped of leading dots; empties and duplicates
// are dropped. First-seen order is preserved because it is the precedence.
// Comma-separated entries are split so "jpg,png" and {"jpg","png"} agree.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, raw := range exts {
		for _, part := range strings.Split(raw, ",") {
			e := strings.ToLower(strings.TrimLeft(strings.TrimSpace(part), "."))
			if e == "" || seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// ValidExtension reports whether ext is a normalized extension made only of
// lower-case ASCII letters and digits. Anything else could escape the base
// once joined into a candidate path.
func ValidExtension(ext string) bool {
	if ext == "" {
		return false
	}
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// SafeExtensions normalizes exts like NormalizeExtensions and then drops
// every entry that fails ValidExtension.
func SafeExtensions(exts []string) []string {
	norm := NormalizeExtensions(exts)
	out := norm[:0]
	for _, e := range norm {
		if ValidExtension(e) {
			out = append(out, e)
		}
	}
	return out
}

// ExtOf returns the lower-cased extension of target without the dot, or ""
// when target has none.
func ExtOf(target string) string {
	ext := path.Ext(target)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}
