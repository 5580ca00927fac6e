package supres

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// doubler is a Model that scales by two with nearest-neighbour sampling and
// records the patch sizes it was called with.
type doubler struct {
	patches []int
	err     error
}

func (d *doubler) Upscale(_ context.Context, img image.Image, patchSize int) (image.Image, error) {
	d.patches = append(d.patches, patchSize)
	if d.err != nil {
		return nil, d.err
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*2, b.Dy()*2))
	for y := 0; y < b.Dy()*2; y++ {
		for x := 0; x < b.Dx()*2; x++ {
			dst.Set(x, y, img.At(b.Min.X+x/2, b.Min.Y+y/2))
		}
	}
	return dst, nil
}

// countingLoader hands out m and counts Load calls.
type countingLoader struct {
	m     Model
	calls int
	got   []Family
}

func (l *countingLoader) Load(_ context.Context, f Family, _ WeightSet) (Model, error) {
	l.calls++
	l.got = append(l.got, f)
	return l.m, nil
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 16), uint8(y * 16), 128, 255})
		}
	}
	return img
}

func writeTestImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, SaveImage(p, testImage(w, h), 0))
	return p
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func newTestEnhancer(t *testing.T, m Model, ws WeightSet, patch int) *Enhancer {
	t.Helper()
	e, err := NewEnhancer(context.Background(), &countingLoader{m: m}, ws, patch)
	require.NoError(t, err)
	return e
}
