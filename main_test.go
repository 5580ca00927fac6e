package main

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/lon9/supres-go/supres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func imageDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.png"} {
		require.NoError(t, supres.SaveImage(filepath.Join(dir, name), testImage(), 0))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("notes"), 0o644))
	return dir
}

func testImage() *image.RGBA { return image.NewRGBA(image.Rect(0, 0, 8, 6)) }

func TestUsageErrors(t *testing.T) {
	dir := imageDir(t)
	for _, args := range [][]string{
		{},
		{dir},
		{dir, "psnr-large", "50", "extra"},
		{dir, "psnr-large", "zero"},
		{dir, "psnr-large", "0"},
	} {
		code, stdout, _ := runCLI(t, append([]string{"-b", "resample"}, args...)...)
		assert.Equal(t, 1, code, "%v", args)
		assert.Contains(t, stdout, "Usage:", "%v", args)
		assert.NoDirExists(t, filepath.Join(dir, "output"), "%v", args)
	}
}

func TestHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "<weight_set>")
}

func TestInvalidWeightSet(t *testing.T) {
	dir := imageDir(t)
	code, _, stderr := runCLI(t, "-b", "resample", dir, "ultra")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid weight set")
	assert.NoDirExists(t, filepath.Join(dir, "output"))
}

func TestSingleFile(t *testing.T) {
	dir := imageDir(t)
	src := filepath.Join(dir, "b.png")

	code, _, stderr := runCLI(t, "-b", "resample", src, "psnr-large")
	require.Equal(t, 0, code, stderr)

	out, err := supres.LoadImage(filepath.Join(dir, "high_res_psnr-large_b.png"))
	require.NoError(t, err)
	assert.Equal(t, 16, out.Bounds().Dx())
	assert.Equal(t, 12, out.Bounds().Dy())
}

func TestDirectoryWithPatchSize(t *testing.T) {
	dir := imageDir(t)
	code, _, stderr := runCLI(t, "-b", "resample", "--log-format", "json", dir, "gans", "50")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, `"message":"enhanced"`)

	entries, err := os.ReadDir(filepath.Join(dir, "output"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"high_res_gans_a.jpg", "high_res_gans_b.png"}, names)

	// second run overwrites in place
	code, _, stderr = runCLI(t, "-b", "resample", dir, "gans")
	require.Equal(t, 0, code, stderr)
	entries, err = os.ReadDir(filepath.Join(dir, "output"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestKeepGoingAndMetrics(t *testing.T) {
	dir := imageDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("junk"), 0o644))
	prom := filepath.Join(t.TempDir(), "supres.prom")

	code, _, _ := runCLI(t, "-b", "resample", dir, "noise-cancel")
	assert.Equal(t, 1, code)

	code, _, _ = runCLI(t, "-b", "resample", "-k", "--metrics-file", prom, dir, "noise-cancel")
	assert.Equal(t, 1, code)
	assert.FileExists(t, filepath.Join(dir, "output", "high_res_noise-cancel_b.png"))

	b, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(b), `supres_images_processed_total{result="error",weights="noise-cancel"} 1`)
	assert.Contains(t, string(b), `supres_images_processed_total{result="ok",weights="noise-cancel"} 2`)
}

func TestConfigFile(t *testing.T) {
	dir := imageDir(t)
	cfg := filepath.Join(t.TempDir(), "supres.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("backend: resample\nquality: 70\nlog_level: warn\n"), 0o644))

	code, _, stderr := runCLI(t, "--config", cfg, dir, "psnr-small")
	require.Equal(t, 0, code, stderr)
	assert.NotContains(t, stderr, "enhanced")
	assert.FileExists(t, filepath.Join(dir, "output", "high_res_psnr-small_a.jpg"))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "supres.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfg := writeConfig(t, "backend: remote\nendpoint: http://127.0.0.1:1\nquality: 70\n")
	out := func(dir string) []byte {
		b, err := os.ReadFile(filepath.Join(dir, "output", "high_res_psnr-large_a.jpg"))
		require.NoError(t, err)
		return b
	}

	overridden := imageDir(t)
	code, _, stderr := runCLI(t, "--config", cfg, "-b", "resample", "-q", "95", overridden, "psnr-large")
	require.Equal(t, 0, code, stderr)

	at95 := imageDir(t)
	code, _, stderr = runCLI(t, "-b", "resample", "-q", "95", at95, "psnr-large")
	require.Equal(t, 0, code, stderr)

	at70 := imageDir(t)
	code, _, stderr = runCLI(t, "-b", "resample", "-q", "70", at70, "psnr-large")
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, out(at95), out(overridden))
	assert.NotEqual(t, out(at70), out(overridden))
}

func TestNoKeepGoingOverridesConfig(t *testing.T) {
	cfg := writeConfig(t, "backend: resample\nkeep_going: true\n")
	setup := func() string {
		dir := imageDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("junk"), 0o644))
		require.NoError(t, supres.SaveImage(filepath.Join(dir, "c.png"), testImage(), 0))
		return dir
	}

	dir := setup()
	code, _, _ := runCLI(t, "--config", cfg, dir, "gans")
	assert.Equal(t, 1, code)
	assert.FileExists(t, filepath.Join(dir, "output", "high_res_gans_c.png"))

	dir = setup()
	code, _, _ = runCLI(t, "--config", cfg, "--no-keep-going", dir, "gans")
	assert.Equal(t, 1, code)
	assert.FileExists(t, filepath.Join(dir, "output", "high_res_gans_b.png"))
	assert.NoFileExists(t, filepath.Join(dir, "output", "high_res_gans_c.png"))

	code, stdout, _ := runCLI(t, "-k", "--no-keep-going", "-b", "resample", dir, "gans")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "mutually exclusive")
}

func TestQualityOutOfRange(t *testing.T) {
	dir := imageDir(t)
	for _, q := range []string{"--quality=500", "--quality=0", "--quality=-5", "--quality=101"} {
		code, stdout, _ := runCLI(t, "-b", "resample", q, dir, "psnr-large")
		assert.Equal(t, 1, code, q)
		assert.Contains(t, stdout, "quality must be between 1 and 100", q)
		assert.Contains(t, stdout, "Usage:", q)
	}
	for _, q := range []string{"0", "-5", "500"} {
		cfg := writeConfig(t, "backend: resample\nquality: "+q+"\n")
		code, _, stderr := runCLI(t, "--config", cfg, dir, "psnr-large")
		assert.Equal(t, 1, code, q)
		assert.Contains(t, stderr, "quality must be between 1 and 100", q)
	}
	assert.NoDirExists(t, filepath.Join(dir, "output"))

	code, _, stderr := runCLI(t, "-b", "resample", "-q", "1", dir, "psnr-large")
	assert.Equal(t, 0, code, stderr)
}

func TestMissingPredictor(t *testing.T) {
	dir := imageDir(t)
	code, _, stderr := runCLI(t, "--command", "supres-no-such-predictor", dir, "psnr-large")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "model unavailable")
	assert.NoDirExists(t, filepath.Join(dir, "output"))
}

func TestRemoteNeedsEndpoint(t *testing.T) {
	t.Setenv("SUPRES_ENDPOINT", "")
	code, _, stderr := runCLI(t, "-b", "remote", imageDir(t), "psnr-large")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "empty endpoint")
}
