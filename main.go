package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/lon9/supres-go/backend/remote"
	"github.com/lon9/supres-go/backend/resample"
	"github.com/lon9/supres-go/backend/subprocess"
	"github.com/lon9/supres-go/config"
	"github.com/lon9/supres-go/supres"
	"github.com/rs/zerolog"
)

const usage = "[OPTIONS] <image_path|image_directory> <weight_set> [<patch_size>]"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "load .env: %v\n", err)
		return 1
	}

	opts := &Options{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "supres"
	parser.Usage = usage
	rest, err := parser.ParseArgs(args)
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			parser.WriteHelp(stdout)
			return 0
		}
		fmt.Fprintln(stdout, err)
		parser.WriteHelp(stdout)
		return 1
	}
	if len(rest) > 0 {
		fmt.Fprintf(stdout, "unexpected arguments: %v\n", rest)
		parser.WriteHelp(stdout)
		return 1
	}

	patchSize := 0
	if s := opts.Args.PatchSize; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			fmt.Fprintf(stdout, "patch_size must be a positive integer, got %q\n", s)
			parser.WriteHelp(stdout)
			return 1
		}
		patchSize = n
	}
	if q := opts.Quality; q != nil && !validQuality(*q) {
		fmt.Fprintf(stdout, "quality must be between 1 and 100, got %d\n", *q)
		parser.WriteHelp(stdout)
		return 1
	}
	if opts.KeepGoing && opts.NoKeepGoing {
		fmt.Fprintln(stdout, "--keep-going and --no-keep-going are mutually exclusive")
		parser.WriteHelp(stdout)
		return 1
	}

	if opts.Config != "" {
		cfg, err := config.Load(opts.Config)
		if err != nil {
			fmt.Fprintf(stderr, "config: %v\n", err)
			return 1
		}
		if err := merge(opts, cfg); err != nil {
			fmt.Fprintf(stderr, "config: %v\n", err)
			return 1
		}
	}

	logger := newLogger(stderr, opts.LogLevel, opts.LogFormat)

	ws, err := supres.ParseWeightSet(opts.Args.WeightSet)
	if err != nil {
		logger.Error().Err(err).Msg("invalid argument")
		return 1
	}

	loader, err := newLoader(opts)
	if err != nil {
		logger.Error().Err(err).Str("backend", opts.Backend).Msg("backend setup failed")
		return 1
	}

	enhancer, err := supres.NewEnhancer(ctx, loader, ws, patchSize)
	if err != nil {
		logger.Error().Err(err).Str("backend", opts.Backend).Msg("model load failed")
		return 1
	}
	if opts.Quality != nil {
		enhancer.Quality = *opts.Quality
	}

	var metrics *supres.Metrics
	if opts.MetricsFile != "" {
		metrics = supres.NewMetrics()
	}
	b := &supres.Batch{
		Enhancer:  enhancer,
		KeepGoing: opts.KeepGoing,
		Logger:    logger,
		Metrics:   metrics,
	}

	rep, err := b.Run(ctx, opts.Args.Path)
	if metrics != nil {
		if werr := metrics.WriteFile(opts.MetricsFile); werr != nil {
			logger.Warn().Err(werr).Str("file", opts.MetricsFile).Msg("write metrics")
		}
	}
	logger.Info().
		Str("output_dir", rep.OutputDir).
		Int("written", len(rep.Results)).
		Int("failed", len(rep.Failures)).
		Msg("done")
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		return 1
	}
	return 0
}

// merge fills unset options from cfg. Flags always win.
func merge(opts *Options, cfg config.Config) error {
	if opts.Backend == "" {
		opts.Backend = cfg.Backend
	}
	if opts.Command == "" {
		opts.Command = cfg.Command
	}
	if opts.Endpoint == "" {
		opts.Endpoint = cfg.Endpoint
	}
	if opts.Timeout == 0 && cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		opts.Timeout = d
	}
	if opts.Quality == nil && cfg.Quality != nil {
		if !validQuality(*cfg.Quality) {
			return fmt.Errorf("quality must be between 1 and 100, got %d", *cfg.Quality)
		}
		opts.Quality = cfg.Quality
	}
	opts.KeepGoing = (opts.KeepGoing || cfg.KeepGoing) && !opts.NoKeepGoing
	if opts.MetricsFile == "" {
		opts.MetricsFile = cfg.MetricsFile
	}
	if opts.LogLevel == "" {
		opts.LogLevel = cfg.LogLevel
	}
	if opts.LogFormat == "" {
		opts.LogFormat = cfg.LogFormat
	}
	if len(opts.CommandArgs) == 0 {
		opts.CommandArgs = cfg.CommandArgs
	}
	return nil
}

func validQuality(q int) bool { return q >= 1 && q <= 100 }

func newLoader(opts *Options) (supres.Loader, error) {
	switch opts.Backend {
	case "", "subprocess":
		return &subprocess.Loader{Command: opts.Command, Args: opts.CommandArgs}, nil
	case "remote":
		return remote.NewLoader(opts.Endpoint, opts.Timeout)
	case "resample":
		return resample.NewLoader(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", opts.Backend)
}

func newLogger(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
