package pipeline

import (
	"context"
	"os"
	"strings"

	"github.com/backmassage/galleryscan/internal/config"
	"github.com/backmassage/galleryscan/internal/display"
	"github.com/backmassage/galleryscan/internal/logging"
	"github.com/backmassage/galleryscan/internal/probe"
)

// RequestFromConfig builds the scan request described by cfg.
func RequestFromConfig(cfg *config.Config) Request {
	return Request{
		Base:        cfg.Base,
		Extensions:  append([]string(nil), cfg.Extensions...),
		MaxIndex:    cfg.MaxIndex,
		BatchSize:   cfg.BatchSize,
		MaxInFlight: cfg.MaxInFlight,
	}
}

// Run is the CLI entry point for a one-shot scan. It logs the scan
// parameters, runs discovery with per-batch debug output, logs a summary,
// and returns the session holding the result.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, checker probe.Checker) *Session {
	req := RequestFromConfig(cfg)
	logScanHeader(cfg, log, req)

	// The inline counter would interleave with per-batch debug lines.
	prog := newProgress(os.Stderr, logging.IsTerminal(os.Stderr) && !cfg.Quiet && !cfg.Verbose)

	s := NewSession(req)
	res := s.Scan(ctx, checker, func(b BatchReport) {
		prog.update(b, req.MaxIndex)
		log.Debug(cfg.Verbose, "Batch %d [%d-%d]: %d/%d present, %d probes, %s",
			b.Number, b.First, b.Last, len(b.Found), b.Last-b.First+1, b.Probes,
			display.FormatElapsed(b.Elapsed))
		for _, it := range b.Found {
			log.Debug(cfg.Verbose, "  %s", it.Path)
		}
	})
	prog.clear()

	logSummary(cfg, log, req, res, checker)
	return s
}

// --- Logging helpers ---

func logScanHeader(cfg *config.Config, log *logging.Logger, req Request) {
	log.Info("Base: %s (%s)", req.Base, cfg.ResolveBackend())
	if cfg.Preset != "" {
		log.Info("Preset: %s", cfg.Preset)
	}
	log.Info("Extensions: %s", strings.Join(req.Extensions, ", "))

	if req.BatchSize == 1 {
		log.Info("Candidates: 1-%d, sequential (stop at first gap)", req.MaxIndex)
	} else {
		log.Info("Candidates: 1-%d, batches of %d (stop on an empty batch)", req.MaxIndex, req.BatchSize)
	}
	if req.MaxInFlight > 0 {
		log.Info("Concurrency: at most %d probes in flight", req.MaxInFlight)
	}
	if cfg.Verify {
		log.Info("Verify: payloads must decode as their media kind")
	}
	if cfg.ProbeTimeout > 0 {
		log.Info("Probe timeout: %s", cfg.ProbeTimeout)
	}
	log.Info("")
}

func logSummary(cfg *config.Config, log *logging.Logger, req Request, res Result, checker probe.Checker) {
	st := res.Stats
	log.Info("==============================")

	switch res.Stop {
	case StopCanceled:
		log.Warn("Interrupted: keeping %d items from %d resolved batches", st.Found, st.Batches)
	case StopNoCandidates:
		log.Warn("Nothing to probe (no extensions or max index is 0)")
		return
	}

	if st.Found == 0 {
		log.Warn("No media found at %s", req.Base)
		log.Info("Add numbered files (%s) to %s", exampleNames(req.Extensions), req.Base)
	} else {
		log.Success("Found %d items in %s", st.Found, display.FormatElapsed(st.Elapsed))
	}

	log.Info("Summary report:")
	log.Info("  Probes: %d (%s hit, %d wasted)", st.Probes, display.FormatRatio(st.Found, st.Probes), st.Wasted())
	log.Info("  Batches: %d, gaps: %d, last index: %d", st.Batches, st.Gaps, st.LastIndex)
	log.Info("  Stopped: %s", describeStop(res.Stop, req))

	if cc, ok := checker.(*probe.CachedChecker); ok {
		hits, misses := cc.Stats()
		log.Debug(cfg.Verbose, "  Cache: %d hits, %d misses", hits, misses)
	}
}

func describeStop(stop StopReason, req Request) string {
	switch stop {
	case StopBound:
		return "reached max index"
	case StopGap:
		if req.BatchSize == 1 {
			return "first missing index"
		}
		return "empty batch"
	case StopCanceled:
		return "interrupted"
	default:
		return string(stop)
	}
}

// exampleNames renders "1.jpg, 2.jpg, ..." for the first extension.
func exampleNames(exts []string) string {
	ext := "jpg"
	if len(exts) > 0 {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(exts[0])), ".")
	}
	return "1." + ext + ", 2." + ext + ", ..."
}
