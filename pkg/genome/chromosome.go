// Package genome holds the polygon image representation: polygons as
// alleles, genes as their slots, and chromosomes as ordered gene sequences
// that render to a raster.
package genome

import (
	"encoding/json"
	"fmt"
	"image"
	"math/rand"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Shape is the fixed genome geometry of a run.
type Shape struct {
	Polygons int `json:"polygons" yaml:"polygons" toml:"polygons"`
	Vertices int `json:"vertices" yaml:"vertices" toml:"vertices"`
}

// Validate checks that the shape can produce a drawable chromosome.
func (s Shape) Validate() error {
	if s.Polygons < 1 {
		return fmt.Errorf("polygon count must be >= 1, got %d", s.Polygons)
	}
	if s.Vertices < 3 {
		return fmt.Errorf("vertices per polygon must be >= 3, got %d", s.Vertices)
	}
	return nil
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Polygons, s.Vertices)
}

// Chromosome is an ordered gene sequence. Later genes paint over earlier ones.
type Chromosome struct {
	genes []Gene
}

// RandomChromosome builds a chromosome of independent random genes.
func RandomChromosome(shape Shape, rng *rand.Rand) Chromosome {
	if err := shape.Validate(); err != nil {
		panic("genome: " + err.Error())
	}
	genes := make([]Gene, shape.Polygons)
	for i := range genes {
		genes[i] = GeneOf(RandomPolygon(shape.Vertices, rng))
	}
	return Chromosome{genes: genes}
}

// ChromosomeOf wraps a copy of genes. All genes must share a vertex count.
func ChromosomeOf(genes []Gene) Chromosome {
	if len(genes) == 0 {
		panic("genome: chromosome needs at least one gene")
	}
	v := genes[0].allele.Len()
	for i, g := range genes {
		if g.allele.Len() != v {
			panic(fmt.Sprintf("genome: gene %d has %d vertices, want %d", i, g.allele.Len(), v))
		}
	}
	cp := make([]Gene, len(genes))
	copy(cp, genes)
	return Chromosome{genes: cp}
}

// WithGenes returns a chromosome of the receiver's shape holding genes.
func (c Chromosome) WithGenes(genes []Gene) Chromosome {
	next := ChromosomeOf(genes)
	if next.Shape() != c.Shape() {
		panic(fmt.Sprintf("genome: shape %s does not match %s", next.Shape(), c.Shape()))
	}
	return next
}

// Reshape returns a fresh random chromosome with the receiver's shape.
func (c Chromosome) Reshape(rng *rand.Rand) Chromosome {
	return RandomChromosome(c.Shape(), rng)
}

// Len returns the gene count.
func (c Chromosome) Len() int { return len(c.genes) }

// Shape returns the polygon count and vertices per polygon.
func (c Chromosome) Shape() Shape {
	if len(c.genes) == 0 {
		return Shape{}
	}
	return Shape{Polygons: len(c.genes), Vertices: c.genes[0].allele.Len()}
}

// Gene returns the gene at index i.
func (c Chromosome) Gene(i int) Gene { return c.genes[i] }

// Genes returns a copy of the gene sequence.
func (c Chromosome) Genes() []Gene {
	out := make([]Gene, len(c.genes))
	copy(out, c.genes)
	return out
}

// Equal reports whether both chromosomes hold identical polygons in order.
func (c Chromosome) Equal(other Chromosome) bool {
	if len(c.genes) != len(other.genes) {
		return false
	}
	for i := range c.genes {
		if !c.genes[i].allele.Equal(other.genes[i].allele) {
			return false
		}
	}
	return true
}

// Render rasterizes the chromosome at width x height. Both must be positive.
func (c Chromosome) Render(width, height int) *image.RGBA {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("genome: render size %dx%d", width, height))
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	c.DrawInto(dst)
	return dst
}

// DrawInto clears dst to opaque white and composites every polygon over it,
// back to front, anti-aliased.
func (c Chromosome) DrawInto(dst *image.RGBA) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	ras := vector.NewRasterizer(b.Dx(), b.Dy())
	for _, g := range c.genes {
		g.allele.Draw(dst, ras)
	}
}

type polygonJSON struct {
	Points [][2]float32 `json:"points"`
	Color  [4]float32   `json:"color"`
}

type chromosomeJSON struct {
	Shape    Shape         `json:"shape"`
	Polygons []polygonJSON `json:"polygons"`
}

// MarshalJSON encodes the chromosome as its shape and polygon list.
func (c Chromosome) MarshalJSON() ([]byte, error) {
	out := chromosomeJSON{Shape: c.Shape(), Polygons: make([]polygonJSON, len(c.genes))}
	for i, g := range c.genes {
		p := g.allele
		pj := polygonJSON{Points: make([][2]float32, p.Len())}
		for v := range pj.Points {
			x, y := p.Vertex(v)
			pj.Points[v] = [2]float32{x, y}
		}
		pj.Color[0], pj.Color[1], pj.Color[2], pj.Color[3] = p.RGBA()
		out.Polygons[i] = pj
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a chromosome written by MarshalJSON.
func (c *Chromosome) UnmarshalJSON(data []byte) error {
	var in chromosomeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Polygons) == 0 {
		return fmt.Errorf("%w: empty chromosome", ErrInvalidPolygon)
	}
	genes := make([]Gene, len(in.Polygons))
	for i, pj := range in.Polygons {
		if len(pj.Points) != len(in.Polygons[0].Points) {
			return fmt.Errorf("%w: polygon %d has %d points, want %d",
				ErrInvalidPolygon, i, len(pj.Points), len(in.Polygons[0].Points))
		}
		components := make([]float32, 0, 2*len(pj.Points)+colorComponents)
		for _, pt := range pj.Points {
			components = append(components, pt[0], pt[1])
		}
		components = append(components, pj.Color[:]...)
		p, err := PolygonOf(components)
		if err != nil {
			return fmt.Errorf("polygon %d: %w", i, err)
		}
		genes[i] = GeneOf(p)
	}
	c.genes = genes
	return nil
}
