package genome

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/rand"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// colorComponents is the number of trailing RGBA components in a polygon.
const colorComponents = 4

// ErrInvalidPolygon is returned when explicit polygon components are malformed.
var ErrInvalidPolygon = errors.New("invalid polygon")

// Polygon is an immutable filled polygon: V vertices in normalized [0,1]
// canvas coordinates followed by a non-premultiplied RGBA fill in [0,1].
//
// Layout of data: x0, y0, x1, y1, ..., r, g, b, a.
type Polygon struct {
	data []float32
}

// RandomPolygon returns a polygon whose vertices and color are drawn
// uniformly over the unit range.
func RandomPolygon(vertices int, rng *rand.Rand) Polygon {
	if vertices < 1 {
		panic(fmt.Sprintf("genome: polygon needs at least one vertex, got %d", vertices))
	}
	data := make([]float32, 2*vertices+colorComponents)
	for i := range data {
		data[i] = rng.Float32()
	}
	return Polygon{data: data}
}

// PolygonOf builds a polygon from explicit components laid out as
// x0, y0, ..., r, g, b, a.
func PolygonOf(components []float32) (Polygon, error) {
	n := len(components) - colorComponents
	if n < 2 || n%2 != 0 {
		return Polygon{}, fmt.Errorf("%w: %d components", ErrInvalidPolygon, len(components))
	}
	for i, v := range components {
		if !(v >= 0 && v <= 1) {
			return Polygon{}, fmt.Errorf("%w: component %d = %v out of [0,1]", ErrInvalidPolygon, i, v)
		}
	}
	data := make([]float32, len(components))
	copy(data, components)
	return Polygon{data: data}, nil
}

// Len returns the vertex count.
func (p Polygon) Len() int {
	if len(p.data) == 0 {
		return 0
	}
	return (len(p.data) - colorComponents) / 2
}

// Vertex returns the normalized coordinates of vertex i.
func (p Polygon) Vertex(i int) (x, y float32) {
	return p.data[2*i], p.data[2*i+1]
}

// RGBA returns the fill as unit-range channels.
func (p Polygon) RGBA() (r, g, b, a float32) {
	c := p.data[len(p.data)-colorComponents:]
	return c[0], c[1], c[2], c[3]
}

// Color returns the fill as an 8-bit non-premultiplied color.
func (p Polygon) Color() color.NRGBA {
	r, g, b, a := p.RGBA()
	return color.NRGBA{R: toByte(r), G: toByte(g), B: toByte(b), A: toByte(a)}
}

// Components returns a copy of the raw component vector.
func (p Polygon) Components() []float32 {
	out := make([]float32, len(p.data))
	copy(out, p.data)
	return out
}

// Equal reports whether both polygons carry identical components.
func (p Polygon) Equal(other Polygon) bool {
	if len(p.data) != len(other.data) {
		return false
	}
	for i := range p.data {
		if p.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// Mutate returns a copy where each component, with probability rate, is
// shifted by uniform(-magnitude, +magnitude) and clamped back to [0,1].
func (p Polygon) Mutate(rate, magnitude float32, rng *rand.Rand) Polygon {
	data := make([]float32, len(p.data))
	for i, v := range p.data {
		if rng.Float32() < rate {
			v = clamp(v + (2*rng.Float32()-1)*magnitude)
		}
		data[i] = v
	}
	return Polygon{data: data}
}

// Mean returns the component-wise average of p and other. Both polygons
// must have the same vertex count.
func (p Polygon) Mean(other Polygon) Polygon {
	if len(p.data) != len(other.data) {
		panic(fmt.Sprintf("genome: mean of polygons with %d and %d vertices", p.Len(), other.Len()))
	}
	data := make([]float32, len(p.data))
	for i := range data {
		data[i] = (p.data[i] + other.data[i]) / 2
	}
	return Polygon{data: data}
}

// Draw fills the polygon over dst, scaling the unit square to dst's bounds.
// ras is reset and reused so callers can share one rasterizer per raster.
func (p Polygon) Draw(dst *image.RGBA, ras *vector.Rasterizer) {
	b := dst.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())

	ras.Reset(b.Dx(), b.Dy())
	ras.DrawOp = draw.Over
	ras.MoveTo(p.data[0]*w, p.data[1]*h)
	for i := 1; i < p.Len(); i++ {
		x, y := p.Vertex(i)
		ras.LineTo(x*w, y*h)
	}
	ras.ClosePath()
	ras.Draw(dst, b, image.NewUniform(p.Color()), image.Point{})
}

func clamp(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}

func toByte(v float32) uint8 {
	return uint8(math32.Round(clamp(v) * 255))
}
