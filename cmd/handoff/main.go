//go:build unix

// Command handoff transforms a file with a producer and a consumer that
// hand each half of the output to one another.
//
//	handoff [flags] <input> <output>
//
// Flags default to the HANDOFF_* environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/llxisdsh/handoff/internal/config"
	"github.com/llxisdsh/handoff/internal/logging"
	"github.com/llxisdsh/handoff/internal/metrics"
	"github.com/llxisdsh/handoff/internal/region"
	"github.com/llxisdsh/handoff/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	fs := flag.NewFlagSet("handoff", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: handoff [flags] <input_file> <output_file>\n")
		fs.PrintDefaults()
	}
	fs.IntVar(&cfg.Phases, "phases", cfg.Phases, "number of handoff phases")
	fs.StringVar(&cfg.Placeholder, "placeholder", cfg.Placeholder, "byte that fills digit runs")
	fs.StringVar(&cfg.ZeroPolicy, "zero", cfg.ZeroPolicy, "what '0' becomes: drop or keep")
	fs.StringVar(&cfg.WaitMode, "wait", cfg.WaitMode, "consumer wait mode: spin or park")
	fs.DurationVar(&cfg.LivenessTimeout, "timeout", cfg.LivenessTimeout, "barrier liveness timeout (0 waits forever)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.LogDev, "v", cfg.LogDev, "human-readable debug logging")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve /metrics on this address")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	if cfg.LogDev {
		cfg.LogLevel = "debug"
	}
	opts, err := cfg.Options()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: cfg.LogDev})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	opts.Recorder = metrics.New(reg)
	opts.Logger = log.Logger
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg, log)
		defer srv.Close()
	}

	if err := transformFile(ctx, fs.Arg(0), fs.Arg(1), opts, log); err != nil {
		log.Error("handoff failed", zap.Error(err))
		return 1
	}
	return 0
}

func transformFile(ctx context.Context, inPath, outPath string, opts pipeline.Options, log *logging.Logger) error {
	same, err := region.SameFile(inPath, outPath)
	if err != nil {
		return err
	}
	if same {
		return errors.New("input and output file can't be the same")
	}

	ctrl, err := pipeline.New(opts)
	if err != nil {
		return err
	}

	in, err := region.OpenInput(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	size := ctrl.Size(in.Bytes())
	out, err := region.CreateOutput(outPath, size)
	if err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrAllocation, err)
	}

	start := time.Now()
	if err := ctrl.Run(ctx, in.Bytes(), out.Bytes()); err != nil {
		if derr := out.Discard(); derr != nil {
			log.Warn("discard output", zap.String("path", outPath), zap.Error(derr))
		}
		return err
	}
	if err := out.Commit(); err != nil {
		_ = out.Discard()
		return err
	}
	log.Info("wrote output",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("bytes", size),
		zap.Duration("elapsed", time.Since(start)))
	return out.Close()
}

func serveMetrics(addr string, reg *prometheus.Registry, log *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server", zap.Error(err))
		}
	}()
	return srv
}
