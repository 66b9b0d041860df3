package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/backmassage/galleryscan/internal/config"
)

// Checker reports whether a candidate target exists. Implementations must be
// safe for concurrent use and must release any resources they acquired before
// returning.
type Checker interface {
	Exists(ctx context.Context, target string) bool
}

// Func adapts a plain function to Checker.
type Func func(ctx context.Context, target string) bool

// Exists calls f.
func (f Func) Exists(ctx context.Context, target string) bool { return f(ctx, target) }

// WithTimeout bounds every probe of next by d. A zero or negative d returns
// next unchanged.
func WithTimeout(next Checker, d time.Duration) Checker {
	if d <= 0 {
		return next
	}
	return Func(func(ctx context.Context, target string) bool {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.Exists(ctx, target)
	})
}

// FromConfig builds the checker selected by cfg: the resolved backend, then
// the per-probe timeout, then the outcome cache (outermost, so cached answers
// skip the timeout entirely).
func FromConfig(cfg *config.Config) (Checker, error) {
	var c Checker
	switch backend := cfg.ResolveBackend(); backend {
	case config.BackendHTTP:
		c = &HTTPChecker{
			Client:    &http.Client{},
			UserAgent: cfg.UserAgent,
			Verify:    cfg.Verify,
		}
	case config.BackendFS:
		root := cfg.Base
		if root == "" {
			root = "."
		}
		c = &FSChecker{Root: root, Verify: cfg.Verify}
	case config.BackendS3:
		client, err := NewS3Client(cfg.S3)
		if err != nil {
			return nil, err
		}
		c = &S3Checker{Client: client, Verify: cfg.Verify}
	default:
		return nil, fmt.Errorf("unsupported backend %q", backend)
	}

	c = WithTimeout(c, cfg.ProbeTimeout)

	if cfg.CacheSize > 0 {
		cached, err := NewCachedChecker(c, cfg.CacheSize, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		c = cached
	}
	return c, nil
}

// drainLimit bounds how much of a body is read before closing, so a GET
// fallback against a large video does not download it.
const drainLimit = 64 << 10

// release drains up to drainLimit bytes and closes rc so the underlying
// connection can be reused.
func release(rc io.ReadCloser) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, drainLimit))
	_ = rc.Close()
}
