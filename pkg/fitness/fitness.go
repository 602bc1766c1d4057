// Package fitness scores rendered chromosomes against a target raster.
package fitness

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/wildfunctions/evolving_images/pkg/genome"
)

// LoadTarget decodes a PNG, JPEG, GIF, BMP or WebP image from path.
func LoadTarget(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open target %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode target %s: %w", path, err)
	}
	return img, nil
}

// Target is a reference raster that chromosomes are compared against.
type Target struct {
	img     *image.RGBA
	buffers sync.Pool
}

// NewTarget flattens img onto opaque white and, when maxSize > 0 and the
// longer side exceeds it, downsizes it keeping the aspect ratio.
func NewTarget(img image.Image, maxSize int) *Target {
	b := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)

	if w, h := fitSize(b.Dx(), b.Dy(), maxSize); w != b.Dx() || h != b.Dy() {
		flat = transform.Resize(flat, w, h, transform.Linear)
	}

	t := &Target{img: flat}
	size := flat.Bounds()
	t.buffers.New = func() any { return image.NewRGBA(size) }
	return t
}

// Image returns the reference raster.
func (t *Target) Image() *image.RGBA { return t.img }

// Size returns the reference raster dimensions.
func (t *Target) Size() (int, int) {
	return t.img.Bounds().Dx(), t.img.Bounds().Dy()
}

// Evaluate renders c at the target size and returns 1 minus the mean
// absolute RGB channel difference, in [0,1]. Higher is better. Safe for
// concurrent use.
func (t *Target) Evaluate(c genome.Chromosome) float64 {
	buf := t.buffers.Get().(*image.RGBA)
	defer t.buffers.Put(buf)
	c.DrawInto(buf)
	return 1 - Distance(t.img, buf)
}

// Distance returns the mean absolute RGB channel difference of two
// equally sized rasters, normalized to [0,1].
func Distance(a, b *image.RGBA) float64 {
	if a.Bounds().Size() != b.Bounds().Size() {
		panic(fmt.Sprintf("fitness: size mismatch %v vs %v", a.Bounds().Size(), b.Bounds().Size()))
	}
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < h; y++ {
		pa := a.Pix[y*a.Stride : y*a.Stride+4*w]
		pb := b.Pix[y*b.Stride : y*b.Stride+4*w]
		for i := 0; i < len(pa); i += 4 {
			sum += absDiff(pa[i], pb[i]) + absDiff(pa[i+1], pb[i+1]) + absDiff(pa[i+2], pb[i+2])
		}
	}
	return float64(sum) / float64(uint64(w)*uint64(h)*3*255)
}

func absDiff(a, b uint8) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}

// fitSize shrinks w x h so the longer side is at most maxSize.
func fitSize(w, h, maxSize int) (int, int) {
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return w, h
	}
	if w >= h {
		return maxSize, max(1, h*maxSize/w)
	}
	return max(1, w*maxSize/h), maxSize
}
