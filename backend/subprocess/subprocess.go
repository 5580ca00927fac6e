// Package subprocess runs super-resolution inference through an external
// predictor executable.
//
// The predictor is invoked once per image as
//
//	<command> [args...] --family <family> --weights <ws> --input <in.png> --output <out.png> [--patch <n>]
//
// and must write the upscaled image to the output path before exiting 0.
package subprocess

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lon9/supres-go/supres"
)

// DefaultCommand is the predictor looked up on PATH when none is configured.
const DefaultCommand = "isr-predict"

// stderrTail bounds how much predictor stderr ends up in an error.
const stderrTail = 2048

// Loader resolves the predictor executable.
type Loader struct {
	Command string
	// Args are passed before the generated flags.
	Args []string
	// Env is appended to the current environment.
	Env []string
	// TempDir is where per-image scratch directories go; "" uses os.TempDir.
	TempDir string
}

// Load checks that the predictor exists. Weights are loaded by the predictor
// itself on each call.
func (l *Loader) Load(_ context.Context, family supres.Family, ws supres.WeightSet) (supres.Model, error) {
	cmd := strings.TrimSpace(l.Command)
	if cmd == "" {
		cmd = DefaultCommand
	}
	path, err := exec.LookPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", supres.ErrModelUnavailable, err)
	}
	return &Model{
		path:    path,
		args:    append([]string(nil), l.Args...),
		env:     append([]string(nil), l.Env...),
		tempDir: l.TempDir,
		family:  family,
		weights: ws,
	}, nil
}

// Model is a predictor bound to one weight set.
type Model struct {
	path    string
	args    []string
	env     []string
	tempDir string
	family  supres.Family
	weights supres.WeightSet
}

// Upscale round-trips img through the predictor via PNG files.
func (m *Model) Upscale(ctx context.Context, img image.Image, patchSize int) (image.Image, error) {
	dir, err := os.MkdirTemp(m.tempDir, "supres-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	if err := writePNG(in, img); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, m.path, m.argv(in, out, patchSize)...)
	cmd.Env = append(os.Environ(), m.env...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(m.path), err, tail(stderr.Bytes()))
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("predictor produced no output: %w", err)
	}
	defer f.Close()
	res, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode predictor output: %w", err)
	}
	return res, nil
}

func (m *Model) argv(in, out string, patchSize int) []string {
	argv := append([]string(nil), m.args...)
	argv = append(argv,
		"--family", string(m.family),
		"--weights", string(m.weights),
		"--input", in,
		"--output", out,
	)
	if patchSize > 0 {
		argv = append(argv, "--patch", strconv.Itoa(patchSize))
	}
	return argv
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func tail(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) > stderrTail {
		b = b[len(b)-stderrTail:]
	}
	return string(b)
}
