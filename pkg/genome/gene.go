package genome

import "math/rand"

// Gene is the slot holding one polygon allele. Genes are replaced, never
// modified.
type Gene struct {
	allele Polygon
}

// GeneOf wraps a polygon.
func GeneOf(p Polygon) Gene {
	return Gene{allele: p}
}

// Allele returns the wrapped polygon.
func (g Gene) Allele() Polygon { return g.allele }

// IsValid is a placeholder required by the gene contract; it always holds.
func (g Gene) IsValid() bool { return true }

// NewRandom returns a gene with a fresh random polygon of the same vertex count.
func (g Gene) NewRandom(rng *rand.Rand) Gene {
	return GeneOf(RandomPolygon(g.allele.Len(), rng))
}

// WithAllele returns a gene occupying the same slot with a different polygon.
func (g Gene) WithAllele(p Polygon) Gene {
	return GeneOf(p)
}

// Blend returns a gene carrying the mean of both alleles.
func (g Gene) Blend(other Gene) Gene {
	return GeneOf(g.allele.Mean(other.allele))
}
