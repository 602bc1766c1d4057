package alter

import (
	"fmt"
	"math/rand"

	"github.com/wildfunctions/evolving_images/pkg/genome"
)

func init() {
	Register("uniform", func(p float64) Recombinator { return UniformCrossover{Probability: p} })
	Register("mean", func(p float64) Recombinator { return MeanAlterer{Probability: p} })
}

// UniformCrossover exchanges whole polygons between two parents.
type UniformCrossover struct {
	Probability float64
}

func (UniformCrossover) Name() string { return "uniform" }

// Crossover swaps, in place, first[i] with second[i+1] for every index i
// whose uniform draw falls below the probability. The last index has no
// partner in second and is skipped without a draw, so the returned count is
// at most len(first)-1.
func (x UniformCrossover) Crossover(first, second []genome.Gene, rng *rand.Rand) int {
	if len(first) != len(second) {
		panic(fmt.Sprintf("alter: crossover of sequences with length %d and %d", len(first), len(second)))
	}
	altered := 0
	for i := 0; i+1 < len(first); i++ {
		if rng.Float64() < x.Probability {
			first[i], second[i+1] = second[i+1], first[i]
			altered++
		}
	}
	return altered
}

// Recombine applies Crossover to copies of both parents.
func (x UniformCrossover) Recombine(a, b genome.Chromosome, rng *rand.Rand) (genome.Chromosome, genome.Chromosome, int) {
	ga, gb := a.Genes(), b.Genes()
	n := x.Crossover(ga, gb, rng)
	return a.WithGenes(ga), b.WithGenes(gb), n
}

// MeanAlterer blends polygons of two parents instead of exchanging them.
type MeanAlterer struct {
	Probability float64
}

func (MeanAlterer) Name() string { return "mean" }

// Blend replaces, in place, first[i] by the mean of first[i] and second[i]
// for every index whose draw falls below the probability. second is left
// untouched.
func (m MeanAlterer) Blend(first, second []genome.Gene, rng *rand.Rand) int {
	if len(first) != len(second) {
		panic(fmt.Sprintf("alter: blend of sequences with length %d and %d", len(first), len(second)))
	}
	altered := 0
	for i := range first {
		if rng.Float64() < m.Probability {
			first[i] = first[i].Blend(second[i])
			altered++
		}
	}
	return altered
}

// Recombine blends a copy of a towards b; b is returned as is.
func (m MeanAlterer) Recombine(a, b genome.Chromosome, rng *rand.Rand) (genome.Chromosome, genome.Chromosome, int) {
	ga := a.Genes()
	n := m.Blend(ga, b.Genes(), rng)
	return a.WithGenes(ga), b, n
}
