package fitness

import (
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/evolving_images/pkg/genome"
)

func uniform(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func invisible(t *testing.T) genome.Chromosome {
	t.Helper()
	p, err := genome.PolygonOf([]float32{0, 0, 1, 0, 0, 1, 0, 0, 0, 0})
	require.NoError(t, err)
	return genome.ChromosomeOf([]genome.Gene{genome.GeneOf(p)})
}

func TestDistance(t *testing.T) {
	white := uniform(3, 2, color.White)
	black := uniform(3, 2, color.Black)
	assert.Zero(t, Distance(white, white))
	assert.Equal(t, 1.0, Distance(white, black))
	assert.Panics(t, func() { Distance(white, uniform(2, 2, color.White)) })
}

func TestTarget_Evaluate(t *testing.T) {
	c := invisible(t)

	white := NewTarget(uniform(4, 4, color.White), 0)
	assert.Equal(t, 1.0, white.Evaluate(c))

	black := NewTarget(uniform(4, 4, color.Black), 0)
	assert.Equal(t, 0.0, black.Evaluate(c))
}

func TestTarget_FlattensTransparency(t *testing.T) {
	target := NewTarget(uniform(2, 2, color.Transparent), 0)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, target.Image().RGBAAt(1, 1))
}

func TestTarget_Resize(t *testing.T) {
	target := NewTarget(uniform(200, 100, color.Black), 50)
	w, h := target.Size()
	assert.Equal(t, 50, w)
	assert.Equal(t, 25, h)

	target = NewTarget(uniform(30, 20, color.Black), 50)
	w, h = target.Size()
	assert.Equal(t, 30, w)
	assert.Equal(t, 20, h)
}

func TestTarget_ConcurrentEvaluate(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	target := NewTarget(uniform(16, 12, color.RGBA{R: 200, G: 40, B: 90, A: 255}), 0)

	pop := make([]genome.Chromosome, 32)
	want := make([]float64, len(pop))
	for i := range pop {
		pop[i] = genome.RandomChromosome(genome.Shape{Polygons: 10, Vertices: 4}, rng)
		want[i] = target.Evaluate(pop[i])
	}

	got := make([]float64, len(pop))
	var wg sync.WaitGroup
	for i := range pop {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = target.Evaluate(pop[i])
		}(i)
	}
	wg.Wait()
	assert.Equal(t, want, got)
}

func TestLoadTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, uniform(5, 3, color.Black)))
	require.NoError(t, f.Close())

	img, err := LoadTarget(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 3), img.Bounds())

	_, err = LoadTarget(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
