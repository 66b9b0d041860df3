// Package naming builds candidate paths for sequentially numbered media
// (<base>/<index>.<ext>), normalizes extension precedence lists, classifies
// extensions into media kinds, and parses numbered filenames back into
// (index, ext) pairs.
//
// Files:
//   - candidate.go: CandidatePath, ParseCandidate, NormalizeExtensions
//   - kind.go: Kind, KindOf, ContentTypeFor
//   - presets.go: Preset, LookupPreset (photos, videos)
package naming
