// Package alter provides the genetic operators over polygon chromosomes:
// mutation, index-paired uniform crossover and mean (blend) recombination.
// Operators hold no state and may be used concurrently on distinct
// chromosomes, each caller supplying its own *rand.Rand.
package alter

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/wildfunctions/evolving_images/pkg/genome"
)

// Recombinator produces two offspring from two parents of the same shape and
// reports how many genes it altered.
type Recombinator interface {
	Name() string
	Recombine(a, b genome.Chromosome, rng *rand.Rand) (genome.Chromosome, genome.Chromosome, int)
}

var registry = map[string]func(p float64) Recombinator{}

// Register adds a recombinator constructor to the registry.
func Register(name string, constructor func(p float64) Recombinator) {
	registry[name] = constructor
}

// Get returns the named recombinator configured with probability p.
func Get(name string, p float64) (Recombinator, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown recombinator: %s (available: %v)", name, Names())
	}
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("recombination probability %v out of [0,1]", p)
	}
	return ctor(p), nil
}

// Names returns all registered recombinator names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
