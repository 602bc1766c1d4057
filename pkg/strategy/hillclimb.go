package strategy

import (
	"math/rand"

	"github.com/wildfunctions/evolving_images/pkg/genome"
)

const hillclimbInjectionRate = 0.05 // fraction of population replaced with random each gen

func init() {
	Register("hillclimb", func() Strategy { return &HillClimbStrategy{} })
}

// HillClimbStrategy mutates every individual each generation, keeps the best
// one unchanged, and replaces the worst with fresh random chromosomes to
// escape local optima. It never recombines.
type HillClimbStrategy struct{}

func (s *HillClimbStrategy) Name() string { return "hillclimb" }

func (s *HillClimbStrategy) Initialize(shape genome.Shape, rng *rand.Rand, popSize int) []genome.Chromosome {
	return randomPopulation(shape, rng, popSize)
}

func (s *HillClimbStrategy) Evolve(
	population []genome.Chromosome,
	fitnesses []float64,
	ops Operators,
	rng *rand.Rand,
) ([]genome.Chromosome, Stats) {
	n := len(population)
	next := make([]genome.Chromosome, n)
	var stats Stats

	for i := 0; i < n; i++ {
		child, altered := ops.Mutator.Mutate(population[i], rng)
		stats.Mutated += altered
		next[i] = child
	}

	order := ranked(fitnesses)

	// Replace worst candidates with random injection
	injectionCount := max(1, int(float64(n)*hillclimbInjectionRate))
	for i := 0; i < injectionCount && i < n-1; i++ {
		idx := order[n-1-i]
		next[idx] = population[idx].Reshape(rng)
	}

	// Elitism: keep the best from the old generation
	bestIdx := order[0]
	next[bestIdx] = population[bestIdx]

	return next, stats
}
