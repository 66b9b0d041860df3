package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into discovery, probe, output, server, display, and utility.
// Negated flags (e.g. --no-color) and presets are applied after Parse so that
// values from DefaultConfig and LoadEnv hold unless a flag overrides them.

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/backmassage/galleryscan/internal/naming"
)

// version is shown in --version, help and the run header; override at build
// time with -ldflags "-X github.com/backmassage/galleryscan/internal/config.version=...".
var version = "1.0.0"

// Version returns the build version.
func Version() string { return version }

// ParseFlags parses args (without the program name) into cfg. On --help or
// --version it prints and exits. On error it returns non-nil (e.g. unknown
// flag, bad preset, wrong number of positional args).
func ParseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("galleryscan", flag.ContinueOnError)
	fs.Usage = func() { printUsage() }

	var negated negatedFlags

	defineDiscoveryFlags(fs, cfg, &negated)
	defineProbeFlags(fs, cfg)
	defineOutputFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if negated.showHelp {
		printUsage()
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "galleryscan v"+version)
		os.Exit(0)
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	// A --preset flag outranks environment values; an environment preset
	// does not.
	envWins := !explicit["preset"]
	explicitExt := explicit["ext"] || explicit["e"] || (envWins && cfg.envSet.ext)
	explicitMax := explicit["max"] || explicit["n"] || (envWins && cfg.envSet.max)
	if err := applyPreset(cfg, explicitExt, explicitMax); err != nil {
		return err
	}
	applyNegatedFlags(cfg, &negated)
	cfg.Extensions = naming.NormalizeExtensions(cfg.Extensions)

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either override a default (sequential -> BatchSize=1) or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	sequential  bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineDiscoveryFlags registers -b/--backend, -e/--ext, --preset, -n/--max, --batch, --sequential, -j/--max-in-flight.
func defineDiscoveryFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.Var(&backendValue{&cfg.Backend}, "backend", "Existence backend: auto | http | fs | s3")
	fs.Var(&backendValue{&cfg.Backend}, "b", "Same as --backend")
	ext := &listValue{p: &cfg.Extensions}
	fs.Var(ext, "ext", "Comma-separated extensions in precedence order")
	fs.Var(ext, "e", "Same as --ext")
	fs.StringVar(&cfg.Preset, "preset", cfg.Preset, "Gallery preset: photos | videos")
	fs.IntVar(&cfg.MaxIndex, "max", cfg.MaxIndex, "Highest index to probe")
	fs.IntVar(&cfg.MaxIndex, "n", cfg.MaxIndex, "Same as --max")
	fs.IntVar(&cfg.BatchSize, "batch", cfg.BatchSize, "Indices probed concurrently per batch")
	fs.BoolVar(&n.sequential, "sequential", false, "Stop at the first missing index (batch size 1)")
	fs.IntVar(&cfg.MaxInFlight, "max-in-flight", cfg.MaxInFlight, "Cap on concurrent probes (0 = unbounded)")
	fs.IntVar(&cfg.MaxInFlight, "j", cfg.MaxInFlight, "Same as --max-in-flight")
}

// defineProbeFlags registers --verify, --timeout, --cache, --cache-ttl, --user-agent.
func defineProbeFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.Verify, "verify", cfg.Verify, "Require candidates to decode as images/videos")
	fs.DurationVar(&cfg.ProbeTimeout, "timeout", cfg.ProbeTimeout, "Per-probe timeout (0 = none)")
	fs.IntVar(&cfg.CacheSize, "cache", cfg.CacheSize, "Probe-outcome cache entries (0 = off)")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "Probe-outcome cache entry lifetime")
	fs.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "User-Agent for HTTP probes")
}

// defineOutputFlags registers -f/--format, -o/--output, --serve.
func defineOutputFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&formatValue{&cfg.Format}, "format", "Manifest format: text | json | m3u")
	fs.Var(&formatValue{&cfg.Format}, "f", "Same as --format")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Write manifest to file or s3://bucket/key")
	fs.StringVar(&cfg.OutputPath, "o", cfg.OutputPath, "Same as --output")
	fs.StringVar(&cfg.ServeAddr, "serve", cfg.ServeAddr, "Serve discovery over HTTP on addr (e.g. :8080)")
}

// defineDisplayFlags registers --color, --no-color, verbose, quiet, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "Only warnings and errors")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run backend diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyPreset fills Extensions and MaxIndex from cfg.Preset unless they were
// set explicitly.
func applyPreset(cfg *Config, explicitExt, explicitMax bool) error {
	if cfg.Preset == "" {
		return nil
	}
	p, ok := naming.LookupPreset(cfg.Preset)
	if !ok {
		return fmt.Errorf("unknown preset %q (use %s)", cfg.Preset, strings.Join(naming.PresetNames(), " or "))
	}
	cfg.Preset = p.Name
	if !explicitExt {
		cfg.Extensions = p.Extensions
	}
	if !explicitMax {
		cfg.MaxIndex = p.MaxIndex
	}
	return nil
}

// applyNegatedFlags copies override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.sequential {
		cfg.BatchSize = 1
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets Base from the single positional arg. Check and
// server modes accept zero positional args.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	switch {
	case len(args) == 1:
		cfg.Base = NormalizeBase(args[0])
	case len(args) == 0 && (cfg.CheckOnly || cfg.ServeAddr != "" || cfg.Base != ""):
		// base may come from GALLERYSCAN_BASE
	default:
		return fmt.Errorf("need exactly one base (URL, directory or s3://bucket/prefix)")
	}
	return nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage() {
	const col1 = 30
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "galleryscan v" + version + " - numbered media gallery discovery"},
		{"", ""},
		{"  galleryscan [OPTIONS] <base>", ""},
		{"  <base> is a directory, an http(s):// URL, or s3://bucket/prefix", ""},
		{"", ""},
		{"Discovery", ""},
		{"  -b, --backend <name>", "auto | http | fs | s3 (default: auto)"},
		{"  -e, --ext <list>", "Extensions in precedence order (default: jpg,jpeg,png,webp)"},
		{"  --preset <photos|videos>", "Extension list and bound of a gallery type"},
		{"  -n, --max <n>", "Highest index to probe (default: 100)"},
		{"  --batch <n>", "Indices probed concurrently (default: 10)"},
		{"  --sequential", "Stop at the first missing index"},
		{"  -j, --max-in-flight <n>", "Concurrent probe cap (default: unbounded)"},
		{"", ""},
		{"Probing", ""},
		{"  --verify", "Require candidates to decode as media"},
		{"  --timeout <dur>", "Per-probe timeout (default: none)"},
		{"  --cache <n>", "Probe-outcome cache entries (default: off)"},
		{"  --cache-ttl <dur>", "Cache entry lifetime (default: 5m)"},
		{"  --user-agent <ua>", "User-Agent for HTTP probes"},
		{"", ""},
		{"Output", ""},
		{"  -f, --format <fmt>", "text | json | m3u (default: text)"},
		{"  -o, --output <path>", "File or s3://bucket/key (default: stdout)"},
		{"  --serve <addr>", "Serve /api/discover and /api/discover/ws"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Per-batch progress"},
		{"  --quiet", "Only warnings and errors"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "Backend diagnostics"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
		{"", ""},
		{"Environment", ""},
		{"  GALLERYSCAN_* and GALLERYSCAN_S3_* (also read from .env)", ""},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum types (Backend, OutputFormat) and
// lists with flag.Var.

type backendValue struct{ p *Backend }

func (b *backendValue) String() string {
	if b.p == nil {
		return ""
	}
	return string(*b.p)
}
func (b *backendValue) Set(s string) error {
	switch v := Backend(strings.ToLower(s)); v {
	case BackendAuto, BackendHTTP, BackendFS, BackendS3:
		*b.p = v
	default:
		return fmt.Errorf("invalid backend %q (use 'auto', 'http', 'fs' or 's3')", s)
	}
	return nil
}

type formatValue struct{ p *OutputFormat }

func (f *formatValue) String() string {
	if f.p == nil {
		return ""
	}
	return string(*f.p)
}
func (f *formatValue) Set(s string) error {
	v, err := ParseOutputFormat(s)
	if err != nil {
		return fmt.Errorf("invalid format %q (use 'text', 'json' or 'm3u')", s)
	}
	*f.p = v
	return nil
}

// listValue replaces the list on the first Set and appends on later ones,
// so "-e jpg -e png" and "-e jpg,png" agree and defaults are not merged in.
type listValue struct {
	p   *[]string
	set bool
}

func (l *listValue) String() string {
	if l.p == nil {
		return ""
	}
	return strings.Join(*l.p, ",")
}
func (l *listValue) Set(s string) error {
	parts := naming.NormalizeExtensions([]string{s})
	if len(parts) == 0 {
		return fmt.Errorf("empty extension list %q", s)
	}
	if !l.set {
		l.set = true
		*l.p = nil
	}
	*l.p = append(*l.p, parts...)
	return nil
}
