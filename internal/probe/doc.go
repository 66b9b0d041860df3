// Package probe answers one question for the discovery scan: does the media
// file at a target exist? Every backend implements [Checker]; failures of any
// kind (not found, network errors, undecodable payloads) fold into false.
//
// Backends:
//   - HTTPChecker: HEAD with GET fallback against http(s) URLs.
//   - FSChecker: os.Stat of regular files, optionally jailed to a root.
//   - S3Checker: StatObject against s3://bucket/key targets (minio-go).
//
// Wrappers:
//   - CachedChecker: LRU of outcomes with a TTL (golang-lru).
//   - WithTimeout: per-probe deadline.
//
// With verification enabled, HTTP, filesystem and S3 backends also require
// the payload to decode as the media kind implied by its extension, which is
// what a browser's image onload event guarantees.
package probe
