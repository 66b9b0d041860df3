// Package config holds runtime configuration: defaults, environment and .env
// loading, CLI flag parsing, and validation. Defaults target a photo
// gallery (four image extensions, 100 candidates) with batched probing.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/backmassage/galleryscan/internal/naming"
)

// --- Enum types for validated string fields ---

// Backend selects how candidate existence is checked.
type Backend string

const (
	BackendAuto Backend = "auto" // Infer from the base (default).
	BackendHTTP Backend = "http" // HEAD/GET against an HTTP(S) base URL.
	BackendFS   Backend = "fs"   // os.Stat under a local directory.
	BackendS3   Backend = "s3"   // StatObject against an S3-compatible bucket.
)

// OutputFormat is the manifest rendering format.
type OutputFormat string

const (
	FormatText OutputFormat = "text" // One path per line (default).
	FormatJSON OutputFormat = "json" // Items, stats and stop reason.
	FormatM3U  OutputFormat = "m3u"  // Extended M3U playlist.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stderr is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

const (
	DefaultBatchSize = 10
	DefaultMaxIndex  = 100
	// MaxIndexLimit caps --max so a typo cannot schedule millions of probes.
	MaxIndexLimit = 100000
	// MaxBatchSize caps indices per batch; a batch holds one goroutine per
	// (index, extension) pair.
	MaxBatchSize = 1000
	// MaxExtensions caps the precedence list.
	MaxExtensions = 16
	// DefaultServerInFlight bounds concurrent probes per request in server
	// mode when MaxInFlight is unset.
	DefaultServerInFlight = 32
)

// DefaultExtensions is the photo gallery precedence order.
var DefaultExtensions = []string{"jpg", "jpeg", "png", "webp"}

// S3Config holds credentials for the S3 backend and the S3 manifest sink.
type S3Config struct {
	Endpoint  string
	Region    string // Default: "us-east-1".
	AccessKey string
	SecretKey string
	UseSSL    bool // Default: true.
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then [LoadEnv], then [ParseFlags], and is passed by pointer to packages that
// need it.
type Config struct {
	// Base location (positional arg). URL, directory, or s3://bucket/prefix.
	Base string

	// Discovery.
	Backend     Backend
	Preset      string   // "photos" | "videos" | "" (explicit extensions).
	Extensions  []string // Precedence order. Default: jpg, jpeg, png, webp.
	MaxIndex    int      // Default: 100.
	BatchSize   int      // Default: 10. 1 selects the sequential first-gap rule.
	MaxInFlight int      // 0 = unbounded concurrency within a batch.

	// Probe behavior.
	Verify       bool          // Require payloads to decode as their media kind.
	ProbeTimeout time.Duration // 0 = no timeout (a hung probe stalls its batch).
	CacheSize    int           // Probe-outcome LRU entries; 0 disables the cache.
	CacheTTL     time.Duration // Default: 5m.
	UserAgent    string

	S3 S3Config

	// Output.
	Format     OutputFormat // Default: "text".
	OutputPath string       // "" = stdout; "s3://bucket/key" uploads.

	// Server mode.
	ServeAddr string // Non-empty runs the HTTP surface instead of a one-shot scan.

	// Display and logging.
	Verbose   bool
	Quiet     bool      // Suppress banner and INFO lines.
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.

	// Fields set by LoadEnv; a preset does not override them.
	envSet struct{ ext, max bool }
}

// DefaultConfig returns a Config matching the photo gallery defaults. Used as
// the base before [LoadEnv] and [ParseFlags] apply overrides.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendAuto,
		Extensions:  append([]string(nil), DefaultExtensions...),
		MaxIndex:    DefaultMaxIndex,
		BatchSize:   DefaultBatchSize,
		MaxInFlight: 0,
		CacheSize:   0,
		CacheTTL:    5 * time.Minute,
		UserAgent:   "galleryscan/" + version,
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Format:    FormatText,
		ColorMode: ColorAuto,
	}
}

// NormalizeBase trims whitespace and trailing slashes from the base. A bare
// "/" is returned unchanged so we don't produce an empty string.
func NormalizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "/" {
		return "/"
	}
	return strings.TrimRight(base, "/")
}

// ResolveBackend returns the effective backend: explicit values are returned
// as-is, auto is inferred from the base scheme.
func (c *Config) ResolveBackend() Backend {
	if c.Backend != BackendAuto && c.Backend != "" {
		return c.Backend
	}
	lower := strings.ToLower(c.Base)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return BackendHTTP
	case strings.HasPrefix(lower, "s3://"):
		return BackendS3
	default:
		return BackendFS
	}
}

// ParseOutputFormat maps a format name to an OutputFormat. Case and
// surrounding space are ignored.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatM3U:
		return f, nil
	}
	return "", errors.New("invalid format (use 'text', 'json' or 'm3u')")
}

// CheckExtensions normalizes exts and rejects lists with more than
// MaxExtensions entries or with entries that are not plain alphanumeric
// extensions.
func CheckExtensions(exts []string) error {
	exts = naming.NormalizeExtensions(exts)
	if len(exts) > MaxExtensions {
		return fmt.Errorf("at most %d extensions are allowed (got %d)", MaxExtensions, len(exts))
	}
	for _, e := range exts {
		if !naming.ValidExtension(e) {
			return fmt.Errorf("invalid extension %q (use letters and digits only)", e)
		}
	}
	return nil
}

// Validate checks enum fields and numeric bounds. Outside CheckOnly and
// server mode it also requires a base.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendHTTP, BackendFS, BackendS3:
		// valid
	default:
		return errors.New("invalid backend (use 'auto', 'http', 'fs' or 's3')")
	}

	if _, err := ParseOutputFormat(string(c.Format)); err != nil {
		return err
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.MaxIndex < 0 || c.MaxIndex > MaxIndexLimit {
		return fmt.Errorf("max index must be between 0 and %d (got %d)", MaxIndexLimit, c.MaxIndex)
	}
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch size must be between 1 and %d (got %d)", MaxBatchSize, c.BatchSize)
	}
	if err := CheckExtensions(c.Extensions); err != nil {
		return err
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("max in-flight must not be negative (got %d)", c.MaxInFlight)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative (got %d)", c.CacheSize)
	}
	if c.ProbeTimeout < 0 {
		return errors.New("probe timeout must not be negative")
	}
	needsS3 := c.ResolveBackend() == BackendS3 || strings.HasPrefix(strings.ToLower(c.OutputPath), "s3://")
	if needsS3 && (c.S3.Endpoint == "" || c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		return errors.New("s3 access needs an endpoint, access key and secret key")
	}

	if c.CheckOnly || c.ServeAddr != "" {
		return nil
	}
	if c.Base == "" {
		return errors.New("need exactly one base (URL, directory or s3://bucket/prefix)")
	}
	return nil
}
