package naming

import "strings"

// Preset bundles the extension precedence and upper bound of a gallery type.
type Preset struct {
	Name       string
	Extensions []string
	MaxIndex   int
}

var presets = map[string]Preset{
	"photos": {Name: "photos", Extensions: []string{"jpg", "jpeg", "png", "webp"}, MaxIndex: 100},
	"videos": {Name: "videos", Extensions: []string{"mp4", "webm", "mov"}, MaxIndex: 100},
}

// LookupPreset returns the named preset (case-insensitive). The returned
// Extensions slice is a copy and may be modified by the caller.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, false
	}
	p.Extensions = append([]string(nil), p.Extensions...)
	return p, true
}

// PresetNames lists the known presets in display order.
func PresetNames() []string {
	return []string{"photos", "videos"}
}
