package alter

import (
	"math/rand"

	"github.com/wildfunctions/evolving_images/pkg/genome"
)

// Mutator perturbs every polygon of a chromosome. Rate is the per-component
// mutation probability, Magnitude the largest shift of a mutated component.
// Probability gates whether the operator touches an individual at all.
type Mutator struct {
	Rate        float32
	Magnitude   float32
	Probability float64
}

// Mutate passes every gene through Polygon.Mutate. The returned count is the
// number of genes offered for mutation (always c.Len()), not the number that
// actually changed.
func (m Mutator) Mutate(c genome.Chromosome, rng *rand.Rand) (genome.Chromosome, int) {
	genes := c.Genes()
	for i, g := range genes {
		genes[i] = g.WithAllele(g.Allele().Mutate(m.Rate, m.Magnitude, rng))
	}
	return c.WithGenes(genes), c.Len()
}

// Apply runs Mutate with probability m.Probability and returns c unchanged
// with a zero count otherwise.
func (m Mutator) Apply(c genome.Chromosome, rng *rand.Rand) (genome.Chromosome, int) {
	if rng.Float64() >= m.Probability {
		return c, 0
	}
	return m.Mutate(c, rng)
}
