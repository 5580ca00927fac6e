package supres

import (
	"context"
	"fmt"
	"image"
)

// Model is a loaded super-resolution network.
// A patchSize of 0 requests whole-image inference; a positive value asks the
// backend to process the image in tiles of that edge length.
type Model interface {
	Upscale(ctx context.Context, img image.Image, patchSize int) (image.Image, error)
}

// Loader instantiates models. Loading may fetch weights and can be slow.
type Loader interface {
	Load(ctx context.Context, family Family, ws WeightSet) (Model, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, family Family, ws WeightSet) (Model, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, family Family, ws WeightSet) (Model, error) {
	return f(ctx, family, ws)
}

// Select resolves ws to its family and loads the model through l.
// An unknown weight set fails before l is called.
func Select(ctx context.Context, l Loader, ws WeightSet) (Model, error) {
	if !ws.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWeightSet, string(ws))
	}
	m, err := l.Load(ctx, ws.Family(), ws)
	if err != nil {
		return nil, fmt.Errorf("load %s weights %s: %w", ws.Family(), ws, err)
	}
	return m, nil
}
