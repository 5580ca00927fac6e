package supres

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
)

// OutputPrefix is prepended to every output file name.
const OutputPrefix = "high_res_"

// OutputPath returns where the enhanced version of src is written inside dir.
func OutputPath(dir string, ws WeightSet, src string) string {
	return filepath.Join(dir, OutputPrefix+string(ws)+"_"+filepath.Base(src))
}

// Enhancer runs the per-image pipeline against a model loaded once.
type Enhancer struct {
	weights   WeightSet
	patchSize int
	model     Model

	// Quality is the JPEG quality for .jpg/.jpeg outputs.
	Quality int
}

// NewEnhancer selects and loads the model for ws.
// patchSize 0 means whole-image inference.
func NewEnhancer(ctx context.Context, l Loader, ws WeightSet, patchSize int) (*Enhancer, error) {
	if patchSize < 0 {
		return nil, fmt.Errorf("%w: patch size must be positive, got %d", ErrUsage, patchSize)
	}
	m, err := Select(ctx, l, ws)
	if err != nil {
		return nil, err
	}
	return &Enhancer{weights: ws, patchSize: patchSize, model: m, Quality: DefaultQuality}, nil
}

// WeightSet returns the weight set the model was loaded with.
func (e *Enhancer) WeightSet() WeightSet { return e.weights }

// PatchSize returns the tile edge length, 0 for whole-image inference.
func (e *Enhancer) PatchSize() int { return e.patchSize }

// Enhance decodes src, upscales it and writes the result into outDir.
// The upscaled image is returned so callers don't have to read it back.
func (e *Enhancer) Enhance(ctx context.Context, src, outDir string) (image.Image, error) {
	_, img, err := e.enhance(ctx, src, outDir)
	return img, err
}

func (e *Enhancer) enhance(ctx context.Context, src, outDir string) (string, image.Image, error) {
	lr, err := LoadImage(src)
	if err != nil {
		return "", nil, err
	}

	sr, err := e.model.Upscale(ctx, lr, e.patchSize)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: %w", ErrInference, src, err)
	}
	if sr == nil {
		return "", nil, fmt.Errorf("%w: %s: %w", ErrInference, src, errors.New("model returned no image"))
	}

	dst := OutputPath(outDir, e.weights, src)
	if err := SaveImage(dst, sr, e.Quality); err != nil {
		return "", nil, err
	}
	return dst, sr, nil
}

// Enhance is the one-shot form of Enhancer.Enhance: it loads the model for
// ws, enhances src into outDir and returns the upscaled image.
func Enhance(ctx context.Context, l Loader, src string, ws WeightSet, outDir string, patchSize int) (image.Image, error) {
	e, err := NewEnhancer(ctx, l, ws, patchSize)
	if err != nil {
		return nil, err
	}
	return e.Enhance(ctx, src, outDir)
}
