package strategy

import (
	"math/rand"

	"github.com/wildfunctions/evolving_images/pkg/genome"
)

const defaultTournamentSize = 3

func init() {
	Register("tournament", func() Strategy { return &TournamentStrategy{} })
}

// TournamentStrategy implements tournament selection with recombination and
// mutation. The best individuals survive unchanged.
type TournamentStrategy struct{}

func (s *TournamentStrategy) Name() string { return "tournament" }

func (s *TournamentStrategy) Initialize(shape genome.Shape, rng *rand.Rand, popSize int) []genome.Chromosome {
	return randomPopulation(shape, rng, popSize)
}

func (s *TournamentStrategy) Evolve(
	population []genome.Chromosome,
	fitnesses []float64,
	ops Operators,
	rng *rand.Rand,
) ([]genome.Chromosome, Stats) {
	n := len(population)
	next := make([]genome.Chromosome, 0, n)
	var stats Stats

	order := ranked(fitnesses)
	for i := 0; i < eliteCount(n) && i < n; i++ {
		next = append(next, population[order[i]])
	}

	size := ops.TournamentSize
	if size < 1 {
		size = defaultTournamentSize
	}

	for len(next) < n {
		c1 := tournamentSelect(population, fitnesses, size, rng)
		c2 := tournamentSelect(population, fitnesses, size, rng)

		if ops.Recombinator != nil {
			var altered int
			c1, c2, altered = ops.Recombinator.Recombine(c1, c2, rng)
			stats.Recombined += altered
		}

		var altered int
		c1, altered = ops.Mutator.Apply(c1, rng)
		stats.Mutated += altered
		next = append(next, c1)

		if len(next) < n {
			c2, altered = ops.Mutator.Apply(c2, rng)
			stats.Mutated += altered
			next = append(next, c2)
		}
	}

	return next, stats
}

func tournamentSelect(pop []genome.Chromosome, fitnesses []float64, size int, rng *rand.Rand) genome.Chromosome {
	bestIdx := rng.Intn(len(pop))
	bestFit := fitnesses[bestIdx]

	for i := 1; i < size; i++ {
		idx := rng.Intn(len(pop))
		if fitnesses[idx] > bestFit {
			bestIdx = idx
			bestFit = fitnesses[idx]
		}
	}

	return pop[bestIdx]
}
