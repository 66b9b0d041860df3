// Command galleryscan discovers numbered media files (1.jpg, 2.png, ...)
// under a URL, directory, or S3 prefix and writes a manifest of what exists.
//
// It loads .env and GALLERYSCAN_* settings, parses flags, and then either
// runs backend diagnostics (--check), serves discovery over HTTP (--serve),
// or runs a one-shot scan and writes the manifest.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/galleryscan/internal/check"
	"github.com/backmassage/galleryscan/internal/config"
	"github.com/backmassage/galleryscan/internal/display"
	"github.com/backmassage/galleryscan/internal/logging"
	"github.com/backmassage/galleryscan/internal/manifest"
	"github.com/backmassage/galleryscan/internal/pipeline"
	"github.com/backmassage/galleryscan/internal/probe"
	"github.com/backmassage/galleryscan/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt.
	cfg := config.DefaultConfig()
	if err := config.LoadEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "galleryscan: %v\n", err)
		return 1
	}
	if err := config.ParseFlags(&cfg, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "galleryscan: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "galleryscan: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "galleryscan: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available. Everything below logs to stderr; stdout
	// carries only the manifest.
	if !cfg.Quiet {
		display.PrintBanner(os.Stderr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, stopping after in-flight probes")
		cancel()
	}()

	if cfg.CheckOnly {
		check.RunCheck(ctx, &cfg, log)
		return 0
	}

	checker, err := probe.FromConfig(&cfg)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	if cfg.ServeAddr != "" {
		log.Info("=== galleryscan v%s (server) ===", config.Version())
		if err := server.ListenAndServe(ctx, cfg.ServeAddr, server.New(&cfg, checker, log), log); err != nil {
			log.Error("%v", err)
			return 1
		}
		return 0
	}

	log.Info("=== galleryscan v%s ===", config.Version())

	// Fail fast on a base that cannot be reached at all; a reachable base
	// with no media is a valid, empty gallery.
	if err := check.CheckBackend(ctx, &cfg); err != nil {
		log.Error("%v", err)
		if errors.Is(err, check.ErrBaseUnreachable) {
			log.Error("Run with --check for diagnostics")
		}
		return 1
	}

	// Phase 3: Scan, then deliver the manifest.
	session := pipeline.Run(ctx, &cfg, log, checker)

	// An interrupted scan still delivers what resolved batches found.
	m := manifest.New(session.Request(), session.Result())
	dest, n, err := manifest.Write(context.WithoutCancel(ctx), &cfg, m, os.Stdout)
	if err != nil {
		log.Error("Cannot write manifest: %v", err)
		return 1
	}
	if dest != "stdout" {
		log.Success("Manifest written to %s (%s)", dest, display.FormatBytes(int64(n)))
	}
	return 0
}
