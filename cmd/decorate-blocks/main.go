// Command decorate-blocks rewrites authored picture-link blocks in HTML pages
// into responsive, optionally linked <picture> elements.
//
// Usage (stdin to stdout):
//
//	cat page.html | decorate-blocks > out.html
//
// Usage (single file):
//
//	decorate-blocks -in page.html > out.html
//
// Usage (directory mode):
//
//	decorate-blocks -dir ./pages -out ./public
//
// Debug (print how each block's rows are read, without decorating):
//
//	decorate-blocks -in page.html -rows
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"pictureblock/internal/config"
	"pictureblock/internal/metrics"
	"pictureblock/internal/metrics/datadog"
	"pictureblock/internal/page"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	os.Exit(runMain(
		context.Background(),
		os.Args[1:],
		os.Stdin,
		os.Stdout,
		os.Stderr,
		defaultDeps(),
	))
}

// appDeps are the side-effecting collaborators of runMain, replaceable in tests.
type appDeps struct {
	loadConfig  func(path string) (config.Config, error)
	initMetrics func(ctx context.Context, job string, m config.Metrics, log *zap.Logger) (func(), error)
	getenv      func(key string) string
}

func defaultDeps() appDeps {
	return appDeps{
		loadConfig:  config.Load,
		initMetrics: initMetrics,
		getenv:      os.Getenv,
	}
}

// runMain is split out from main so the command can be tested without
// spawning a process.
//
// It returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func runMain(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, deps appDeps) int {
	fs := flag.NewFlagSet("decorate-blocks", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfgPath := fs.String("config", "", "Optional: path to JSON config file")
	inPath := fs.String("in", "", "Optional: read the page from this file instead of stdin")
	dirFlag := fs.String("dir", "", "Optional: decorate every .html file in this directory (requires -out)")
	outDir := fs.String("out", "", "Output directory for -dir mode")
	selector := fs.String("selector", "", "CSS selector of block roots (overrides config)")
	rowsOnly := fs.Bool("rows", false, "Debug: print each block's named rows instead of decorating")
	metricsBackend := fs.String("metrics-backend", "", "metrics backend: none|datadog (overrides env METRICS_BACKEND and config)")
	verbose := fs.Bool("v", false, "enable debug logs")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}
	if *dirFlag != "" && *outDir == "" {
		fmt.Fprintln(stderr, "-dir requires -out")
		return 2
	}
	if *outDir != "" && *dirFlag == "" {
		fmt.Fprintln(stderr, "-out requires -dir")
		return 2
	}
	if *dirFlag != "" && (*inPath != "" || *rowsOnly) {
		fmt.Fprintln(stderr, "-dir cannot be combined with -in or -rows")
		return 2
	}

	log := newLogger(stderr, *verbose)
	defer func() { _ = log.Sync() }()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := deps.loadConfig(*cfgPath)
		if err != nil {
			fmt.Fprintf(stderr, "load config: %v\n", err)
			return 2
		}
		cfg = loaded
	}
	applyOverrides(&cfg, *selector, *metricsBackend, deps.getenv)

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return 2
	}

	if *rowsOnly {
		html, err := page.Load(page.Input{Path: *inPath, Stdin: stdin})
		if err != nil {
			fmt.Fprintf(stderr, "load html: %v\n", err)
			return 1
		}
		if err := page.DebugPrintRows(stdout, html, cfg.Selector); err != nil {
			fmt.Fprintf(stderr, "print rows: %v\n", err)
			return 1
		}
		return 0
	}

	cleanup, err := deps.initMetrics(ctx, cfg.Job, cfg.Metrics, log)
	if err != nil {
		fmt.Fprintf(stderr, "init metrics: %v\n", err)
		return 1
	}
	defer cleanup()

	opts := cfg.PageOptions()

	if *dirFlag != "" {
		stats, err := page.DecorateDir(*dirFlag, *outDir, opts, log)
		if err != nil {
			fmt.Fprintf(stderr, "decorate dir: %v\n", err)
			return 1
		}
		logStats(log, stats)
		return 0
	}

	html, err := page.Load(page.Input{Path: *inPath, Stdin: stdin})
	if err != nil {
		fmt.Fprintf(stderr, "load html: %v\n", err)
		return 1
	}
	out, stats, err := page.DecorateHTML(html, opts)
	if err != nil {
		fmt.Fprintf(stderr, "decorate: %v\n", err)
		return 1
	}
	if _, err := io.WriteString(stdout, out); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	logStats(log, stats)
	return 0
}

// applyOverrides layers flags over environment over the config file.
func applyOverrides(cfg *config.Config, selector, backend string, getenv func(string) string) {
	if s := strings.TrimSpace(selector); s != "" {
		cfg.Selector = s
	}

	switch {
	case backend != "":
		cfg.Metrics.Backend = backend
	case getenv("METRICS_BACKEND") != "":
		cfg.Metrics.Backend = getenv("METRICS_BACKEND")
	}

	if tags := datadog.ParseTagsCSV(getenv("METRICS_TAGS")); len(tags) > 0 {
		cfg.Metrics.Tags = append(cfg.Metrics.Tags, tags...)
	}
}

func logStats(log *zap.Logger, s page.Stats) {
	log.Info("Decoration complete",
		zap.Int("pages", s.Pages),
		zap.Int("blocks", s.Blocks),
		zap.Int("linked", s.Linked),
		zap.Int("pictures", s.Pictures),
		zap.Int("missing_image", s.Missing),
	)
	if s.Missing > 0 {
		log.Warn("Some blocks have no image and render the placeholder message", zap.Int("count", s.Missing))
	}
}

// newLogger writes human-readable logs to w (stderr), keeping stdout for HTML.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.TimeKey = zapcore.OmitKey

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.AddSync(w), level))
}

// metricsBackend is what initMetrics needs to own a backend's lifetime.
type metricsBackend interface {
	Close() error
}

// Seams for tests.
var (
	newDatadogBackend = func(ctx context.Context, opts datadog.Options) (metricsBackend, error) {
		b, err := datadog.NewBackend(ctx, opts)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	// A value that is not a metrics.Backend (nil included) restores the no-op
	// backend.
	setMetricsBackend = func(b any) {
		mb, _ := b.(metrics.Backend)
		metrics.SetBackend(mb)
	}
)

// initMetrics installs the configured backend and returns its cleanup.
//
// The returned cleanup is never nil, even on error. For "" and "none" nothing
// is installed and the package-level no-op backend stays in place.
func initMetrics(ctx context.Context, job string, m config.Metrics, log *zap.Logger) (func(), error) {
	switch m.Backend {
	case "", "none":
		return func() {}, nil

	case "datadog":
		b, err := newDatadogBackend(ctx, datadog.Options{
			JobName:    job,
			Tags:       m.Tags,
			FlushEvery: m.FlushEvery(),
		})
		if err != nil {
			return func() {}, fmt.Errorf("datadog backend: %w", err)
		}
		setMetricsBackend(b)
		log.Debug("Metrics enabled", zap.String("backend", "datadog"), zap.String("job", job), zap.Strings("tags", m.Tags))

		return func() {
			if err := b.Close(); err != nil {
				log.Error("metrics: datadog close error", zap.Error(err))
			}
			setMetricsBackend(nil)
		}, nil

	default:
		return func() {}, fmt.Errorf("unknown metrics backend %q (want none|datadog)", m.Backend)
	}
}
