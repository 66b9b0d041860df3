// Package check provides backend diagnostics (--check mode) and the
// pre-scan reachability check (CheckBackend) for HTTP, filesystem, and S3
// bases.
package check

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/backmassage/galleryscan/internal/config"
	"github.com/backmassage/galleryscan/internal/naming"
	"github.com/backmassage/galleryscan/internal/probe"
)

// Sentinel errors returned by CheckBackend.
var (
	ErrNoBase          = errors.New("no base configured")
	ErrBaseUnreachable = errors.New("base is unreachable")
	ErrBaseNotDir      = errors.New("base is not a directory")
	ErrBucketMissing   = errors.New("bucket does not exist")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the interactive --check flow: resolved backend, base
// reachability, how many numbered candidates a listing shows (where the
// backend can list), and a probe of index 1 per extension.
// This is informational only; it does not stop on failure.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) {
	log.Info("=== Backend Check ===")
	backend := cfg.ResolveBackend()
	log.Info("Backend: %s", backend)
	log.Info("Extensions: %s", strings.Join(cfg.Extensions, ", "))

	if cfg.Base == "" {
		log.Warn("No base given; pass a URL, directory or s3://bucket/prefix")
		return
	}
	log.Info("Base: %s", cfg.Base)

	if err := CheckBackend(ctx, cfg); err != nil {
		log.Error("%v", err)
		return
	}
	log.Success("Base reachable")

	switch backend {
	case config.BackendFS:
		checkListing(log, cfg.Extensions, func() ([]string, error) { return listDir(cfg.Base) })
	case config.BackendS3:
		checkListing(log, cfg.Extensions, func() ([]string, error) { return listBucket(ctx, cfg) })
	default:
		log.Debug(cfg.Verbose, "HTTP bases cannot be listed; probing only")
	}

	checkFirstIndex(ctx, cfg, log)
}

// CheckBackend verifies that the base can be reached before a scan: any
// HTTP response from the base URL, an existing directory, or an existing
// bucket. Returns a wrapped sentinel error on failure.
func CheckBackend(ctx context.Context, cfg *config.Config) error {
	if cfg.Base == "" {
		return ErrNoBase
	}
	switch cfg.ResolveBackend() {
	case config.BackendHTTP:
		return checkHTTP(ctx, cfg)
	case config.BackendS3:
		return checkBucket(ctx, cfg)
	default:
		return checkDir(cfg.Base)
	}
}

// --- internal helpers ---

// checkHTTP sends HEAD to the base with a trailing slash. Any status counts
// as reachable: many hosts refuse directory listings but serve the files.
func checkHTTP(ctx context.Context, cfg *config.Config) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, cfg.Base+"/", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBaseUnreachable, err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBaseUnreachable, err)
	}
	resp.Body.Close()
	return nil
}

func checkDir(base string) error {
	fi, err := os.Stat(base)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBaseUnreachable, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrBaseNotDir, base)
	}
	return nil
}

func checkBucket(ctx context.Context, cfg *config.Config) error {
	bucket, _, err := probe.ParseS3URL(cfg.Base)
	if err != nil {
		return err
	}
	client, err := probe.NewS3Client(cfg.S3)
	if err != nil {
		return err
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBaseUnreachable, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrBucketMissing, bucket)
	}
	return nil
}

// checkListing logs how many listed names are numbered candidates with a
// configured extension, and the first missing index among them.
func checkListing(log Logger, exts []string, list func() ([]string, error)) {
	names, err := list()
	if err != nil {
		log.Warn("Could not list base: %v", err)
		return
	}
	count, firstGap := countCandidates(names, exts)
	if count == 0 {
		log.Warn("No numbered candidates (1.%s, 2.%s, ...) in listing", firstExt(exts), firstExt(exts))
		return
	}
	log.Success("%d numbered candidates in listing", count)
	log.Info("First missing index: %d (a sequential scan stops there)", firstGap)
}

// checkFirstIndex probes index 1 with every extension using the configured
// checker, the same way a scan would.
func checkFirstIndex(ctx context.Context, cfg *config.Config, log Logger) {
	checker, err := probe.FromConfig(cfg)
	if err != nil {
		log.Error("Cannot build checker: %v", err)
		return
	}
	found := false
	for _, ext := range cfg.Extensions {
		target := naming.CandidatePath(cfg.Base, 1, ext)
		if checker.Exists(ctx, target) {
			log.Success("Probe %s: present", target)
			found = true
		} else {
			log.Debug(cfg.Verbose, "Probe %s: absent", target)
		}
	}
	if !found {
		log.Warn("Index 1 is absent for every extension; a scan will find nothing")
	}
}

// countCandidates counts distinct indices among names that parse as
// <index>.<ext> with ext in exts, and returns the smallest index >= 1 not
// present.
func countCandidates(names, exts []string) (count, firstGap int) {
	allowed := make(map[string]bool, len(exts))
	for _, e := range naming.NormalizeExtensions(exts) {
		allowed[e] = true
	}
	seen := make(map[int]bool)
	for _, name := range names {
		idx, ext, ok := naming.ParseCandidate(name)
		if ok && allowed[strings.ToLower(ext)] {
			seen[idx] = true
		}
	}
	firstGap = 1
	for seen[firstGap] {
		firstGap++
	}
	return len(seen), firstGap
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func listBucket(ctx context.Context, cfg *config.Config) ([]string, error) {
	bucket, prefix, err := probe.ParseS3URL(cfg.Base)
	if err != nil {
		return nil, err
	}
	client, err := probe.NewS3Client(cfg.S3)
	if err != nil {
		return nil, err
	}
	if prefix != "" {
		prefix = strings.TrimSuffix(prefix, "/") + "/"
	}
	var names []string
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		names = append(names, path.Base(obj.Key))
	}
	return names, nil
}

func firstExt(exts []string) string {
	if n := naming.NormalizeExtensions(exts); len(n) > 0 {
		return n[0]
	}
	return "jpg"
}
