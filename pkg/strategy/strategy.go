package strategy

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/wildfunctions/evolving_images/pkg/alter"
	"github.com/wildfunctions/evolving_images/pkg/genome"
)

// Operators are the alterers a strategy applies when breeding offspring.
type Operators struct {
	Mutator        alter.Mutator
	Recombinator   alter.Recombinator // nil disables recombination
	TournamentSize int
}

// Stats sums the altered-gene counts reported by the operators during one
// Evolve call.
type Stats struct {
	Mutated    int `json:"mutated"`
	Recombined int `json:"recombined"`
}

// Strategy defines how a population of chromosomes is bred into the next
// generation. Fitness is higher-is-better.
type Strategy interface {
	Name() string
	Initialize(shape genome.Shape, rng *rand.Rand, popSize int) []genome.Chromosome
	Evolve(population []genome.Chromosome, fitnesses []float64, ops Operators, rng *rand.Rand) ([]genome.Chromosome, Stats)
}

var registry = map[string]func() Strategy{}

// Register adds a strategy constructor to the registry.
func Register(name string, constructor func() Strategy) {
	registry[name] = constructor
}

// Get returns a strategy by name.
func Get(name string) (Strategy, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
	return ctor(), nil
}

// Names returns all registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

const eliteRate = 0.05 // fraction of the population carried over unchanged

func randomPopulation(shape genome.Shape, rng *rand.Rand, popSize int) []genome.Chromosome {
	pop := make([]genome.Chromosome, popSize)
	for i := range pop {
		pop[i] = genome.RandomChromosome(shape, rng)
	}
	return pop
}

// ranked returns population indices sorted by fitness, best first.
func ranked(fitnesses []float64) []int {
	indices := make([]int, len(fitnesses))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return fitnesses[indices[a]] > fitnesses[indices[b]]
	})
	return indices
}

func eliteCount(n int) int {
	return max(1, int(float64(n)*eliteRate))
}
