package collage

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batchScene = `
resolution = "720p"
high_quality = false

[viewport]
width = 320
height = 180

[[text]]
value = "Batch"
x = 5
y = 5

[[image]]
src = "tile.png"
x = 40
y = 40
`

func decodePNGSize(t *testing.T, path string) (int, int) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestExec_SingleScene(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tile.png"), pngBytes(t, 30, 30, color.NRGBA{R: 90, A: 255}), 0644))
	scene := writeScene(t, dir, "scene.toml", batchScene)
	dst := filepath.Join(dir, "out.png")

	var stderr bytes.Buffer
	op := &Ops{Src: scene, Dst: dst, PipeName: "-", Stderr: &stderr}
	require.NoError(t, op.Execute(context.Background()))

	w, h := decodePNGSize(t, dst)
	assert.Equal(1280, w)
	assert.Equal(720, h)
	assert.Contains(stderr.String(), "out.png")
	assert.Contains(stderr.String(), "Execution time")
}

func TestExec_OverrideTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tile.png"), pngBytes(t, 30, 30, color.NRGBA{R: 90, A: 255}), 0644))
	scene := writeScene(t, dir, "scene.toml", batchScene)
	dst := filepath.Join(dir, "out.png")

	op := &Ops{
		Src:      scene,
		Dst:      dst,
		PipeName: "-",
		Stderr:   &bytes.Buffer{},
		Override: func(cfg *Config) { cfg.Resolution = "1080p" },
	}
	require.NoError(t, op.Execute(context.Background()))

	w, h := decodePNGSize(t, dst)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
}

func TestExec_Directory(t *testing.T) {
	assert := assert.New(t)
	src, dst := t.TempDir(), filepath.Join(t.TempDir(), "exports")
	require.NoError(t, os.WriteFile(filepath.Join(src, "tile.png"), pngBytes(t, 30, 30, color.NRGBA{B: 90, A: 255}), 0644))
	writeScene(t, src, "first.toml", batchScene)
	writeScene(t, src, "second.toml", batchScene)
	writeScene(t, src, "notes.txt", "not a scene")

	var stderr bytes.Buffer
	op := &Ops{Src: src, Dst: dst, PipeName: "-", Workers: 2, Stderr: &stderr}
	require.NoError(t, op.Execute(context.Background()))

	for _, name := range []string{"first.png", "second.png"} {
		w, h := decodePNGSize(t, filepath.Join(dst, name))
		assert.Equal(1280, w)
		assert.Equal(720, h)
	}
	assert.NoFileExists(filepath.Join(dst, "notes.png"))
}

func TestExec_DirectoryReportsFailures(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeScene(t, src, "good.toml", `resolution = "720p"`)
	writeScene(t, src, "bad.toml", `resolution = "8K"`)

	op := &Ops{Src: src, Dst: dst, PipeName: "-", Workers: 4, Stderr: &bytes.Buffer{}}
	err := op.Execute(context.Background())
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.ErrorContains(t, err, "bad.toml")
	assert.FileExists(t, filepath.Join(dst, "good.png"))
}

func TestExec_DirectoryRequiresDestination(t *testing.T) {
	src := t.TempDir()
	writeScene(t, src, "first.toml", batchScene)

	op := &Ops{Src: src, PipeName: "-", Stderr: &bytes.Buffer{}}
	assert.ErrorIs(t, op.Execute(context.Background()), ErrNoDestination)
	assert.NoFileExists(t, filepath.Join(src, "first.png"))

	op.Dst = "-"
	assert.Error(t, op.Execute(context.Background()))
}

func TestExec_MissingSource(t *testing.T) {
	op := &Ops{Src: filepath.Join(t.TempDir(), "missing.toml"), PipeName: "-", Stderr: &bytes.Buffer{}}
	assert.Error(t, op.Execute(context.Background()))
}
