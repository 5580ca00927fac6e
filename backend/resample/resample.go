// Package resample provides an interpolation-only stand-in for the
// super-resolution models. It honors each family's nominal scale so outputs
// have the same geometry a real model would produce, which makes it useful
// for previews and for pipelines without an inference runtime.
package resample

import (
	"context"
	"image"

	"github.com/lon9/supres-go/supres"
	"github.com/nfnt/resize"
)

// Loader hands out resampling models.
type Loader struct {
	// Interp overrides the per-family interpolation when set.
	Interp *resize.InterpolationFunction
}

// NewLoader returns a Loader using the default interpolation per family.
func NewLoader() *Loader { return &Loader{} }

// Load returns a model scaling by family's nominal factor.
func (l *Loader) Load(_ context.Context, family supres.Family, _ supres.WeightSet) (supres.Model, error) {
	scale := family.Scale()
	if scale == 0 {
		return nil, supres.ErrModelUnavailable
	}
	interp := resize.Bicubic
	if family == supres.RRDN {
		interp = resize.Lanczos3
	}
	if l.Interp != nil {
		interp = *l.Interp
	}
	return &Model{Scale: scale, Interp: interp}, nil
}

// Model scales images by a fixed integer factor.
type Model struct {
	Scale  int
	Interp resize.InterpolationFunction
}

// Upscale resizes img. Interpolation is done in one pass regardless of
// patchSize, so tiling never changes the result.
func (m *Model) Upscale(ctx context.Context, img image.Image, _ int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	return resize.Resize(uint(b.Dx()*m.Scale), uint(b.Dy()*m.Scale), img, m.Interp), nil
}
