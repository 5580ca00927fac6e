package supres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// OutputDirName is the subdirectory batch mode writes into.
const OutputDirName = "output"

// ListImages returns the eligible image files at path in directory-listing
// order. Only regular files (or symlinks to them) are eligible. A file path
// is returned on its own if its extension is supported.
func ListImages(path string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		if !fi.Mode().IsRegular() || !IsImage(path) {
			return nil, nil
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		p := filepath.Join(path, e.Name())
		// Stat follows symlinks; FIFOs, sockets and devices would block or
		// fail on open.
		if st, err := os.Stat(p); err != nil || !st.Mode().IsRegular() {
			continue
		}
		files = append(files, p)
	}
	return files, nil
}

// Result describes one written image.
type Result struct {
	Source   string
	Output   string
	Width    int
	Height   int
	Duration time.Duration
}

// Failure describes one image that could not be enhanced.
type Failure struct {
	Source string
	Err    error
}

// Report summarizes a batch run.
type Report struct {
	OutputDir string
	Results   []Result
	Failures  []Failure
}

// Batch applies an Enhancer to a file or to every image in a directory.
type Batch struct {
	Enhancer *Enhancer

	// KeepGoing logs per-file failures and moves on instead of aborting.
	KeepGoing bool

	Logger  zerolog.Logger
	Metrics *Metrics
}

// Run processes path. A directory gets its results in path/output, created
// if missing; a single file gets its result next to it.
//
// Without KeepGoing the first failure aborts the run; outputs written
// before it are left in place.
func (b *Batch) Run(ctx context.Context, path string) (Report, error) {
	var rep Report

	fi, err := os.Stat(path)
	if err != nil {
		return rep, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if fi.IsDir() {
		rep.OutputDir = filepath.Join(path, OutputDirName)
		if err := os.MkdirAll(rep.OutputDir, 0o755); err != nil {
			return rep, fmt.Errorf("%w: %w", ErrWrite, err)
		}
	} else {
		rep.OutputDir = filepath.Dir(path)
	}

	files, err := ListImages(path)
	if err != nil {
		return rep, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if !fi.IsDir() && len(files) == 0 {
		return rep, fmt.Errorf("%w: %s: not a regular .jpg, .jpeg or .png file", ErrDecode, path)
	}

	ws := b.Enhancer.WeightSet()
	b.Logger.Info().
		Str("path", path).
		Str("weights", string(ws)).
		Int("patch_size", b.Enhancer.PatchSize()).
		Int("files", len(files)).
		Msg("starting")

	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		start := time.Now()
		dst, img, err := b.Enhancer.enhance(ctx, src, rep.OutputDir)
		d := time.Since(start)
		b.Metrics.Observe(ws, err, d)

		if err != nil {
			if !b.KeepGoing || ctx.Err() != nil {
				return rep, err
			}
			b.Logger.Error().Err(err).Str("file", src).Msg("enhance failed")
			rep.Failures = append(rep.Failures, Failure{Source: src, Err: err})
			continue
		}

		r := Result{
			Source:   src,
			Output:   dst,
			Width:    img.Bounds().Dx(),
			Height:   img.Bounds().Dy(),
			Duration: d,
		}
		rep.Results = append(rep.Results, r)
		b.Logger.Info().
			Str("file", src).
			Str("output", dst).
			Int("width", r.Width).
			Int("height", r.Height).
			Dur("duration", d).
			Msg("enhanced")
	}

	if len(rep.Failures) > 0 {
		errs := make([]error, 0, len(rep.Failures))
		for _, f := range rep.Failures {
			errs = append(errs, f.Err)
		}
		return rep, fmt.Errorf("%w: %d of %d: %w", ErrPartialFailure, len(rep.Failures), len(files), errors.Join(errs...))
	}
	return rep, nil
}
