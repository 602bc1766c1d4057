// Package engine drives the evolutionary search: it breeds generations with
// a selection strategy and the genetic operators, evaluates fitness in
// parallel, and reports every generation to an observer.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/wildfunctions/evolving_images/pkg/alter"
	"github.com/wildfunctions/evolving_images/pkg/genome"
	"github.com/wildfunctions/evolving_images/pkg/strategy"
)

// Func scores a chromosome; higher is better. It is called concurrently
// from several workers.
type Func func(genome.Chromosome) float64

// Result is what the engine reports after evaluating a generation.
type Result struct {
	Generation      int
	Best            genome.Chromosome // best of this generation
	BestFitness     float64
	BestEver        genome.Chromosome
	BestEverFitness float64
	MeanFitness     float64
	PopulationSize  int
	Stats           strategy.Stats // operator counts that produced this generation
}

// Engine runs the evolutionary search.
type Engine struct {
	cfg      Config
	fitness  Func
	strategy strategy.Strategy
	ops      strategy.Operators
	rng      *rand.Rand
	log      *slog.Logger
}

// New creates a new engine from the given config.
func New(cfg Config, fitness Func) (*Engine, error) {
	if fitness == nil {
		return nil, errors.New("engine: fitness function is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	ops := strategy.Operators{
		Mutator: alter.Mutator{
			Rate:        cfg.MutationRate,
			Magnitude:   cfg.MutationMagnitude,
			Probability: cfg.MutatorProbability,
		},
		TournamentSize: cfg.TournamentSize,
	}
	if cfg.Crossover != "" {
		if ops.Recombinator, err = alter.Get(cfg.Crossover, cfg.CrossoverProbability); err != nil {
			return nil, err
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	return &Engine{
		cfg:      cfg,
		fitness:  fitness,
		strategy: s,
		ops:      ops,
		rng:      rand.New(rand.NewSource(seed)),
		log:      slog.Default(),
	}, nil
}

// SetLogger replaces the default logger.
func (e *Engine) SetLogger(l *slog.Logger) { e.log = l }

// Run executes the evolutionary loop. observe, if non-nil, is called once per
// generation, in order, starting at generation 1. The loop ends when the
// generation budget is spent, ctx is done, or the target fitness is reached.
func (e *Engine) Run(ctx context.Context, observe func(Result)) FinalReport {
	start := time.Now()
	report := FinalReport{Config: e.cfg, Reason: StopBudget}

	var bestEver genome.Chromosome
	bestEverFitness := 0.0
	haveBest := false
	var stats strategy.Stats

	population := e.strategy.Initialize(e.cfg.Shape(), e.rng, e.cfg.Population)

	unlimited := e.cfg.Generations <= 0
	for gen := 1; unlimited || gen <= e.cfg.Generations; gen++ {
		if ctx.Err() != nil {
			report.Reason = StopCancelled
			break
		}

		fitnesses := e.evaluatePopulation(population)

		bestIdx := 0
		var mean float64
		for i, f := range fitnesses {
			mean += f
			if f > fitnesses[bestIdx] {
				bestIdx = i
			}
		}
		mean /= float64(len(fitnesses))

		if !haveBest || fitnesses[bestIdx] > bestEverFitness {
			bestEver = population[bestIdx]
			bestEverFitness = fitnesses[bestIdx]
			haveBest = true
			report.BestGeneration = gen
		}

		res := Result{
			Generation:      gen,
			Best:            population[bestIdx],
			BestFitness:     fitnesses[bestIdx],
			BestEver:        bestEver,
			BestEverFitness: bestEverFitness,
			MeanFitness:     mean,
			PopulationSize:  len(population),
			Stats:           stats,
		}
		if e.cfg.Verbose {
			report.History = append(report.History, GenerationReport{
				Generation:  gen,
				BestFitness: res.BestFitness,
				MeanFitness: mean,
				Stats:       stats,
			})
			e.log.Debug("generation", "generation", gen, "best", res.BestFitness, "mean", mean)
		}
		if observe != nil {
			observe(res)
		}
		report.Generations = gen

		if e.cfg.TargetFitness > 0 && bestEverFitness >= e.cfg.TargetFitness {
			report.Reason = StopTarget
			break
		}

		population, stats = e.strategy.Evolve(population, fitnesses, e.ops, e.rng)
		report.Mutated += stats.Mutated
		report.Recombined += stats.Recombined
	}

	report.Best = bestEver
	report.BestFitness = bestEverFitness
	report.Elapsed = time.Since(start)
	return report
}

// evaluatePopulation evaluates all candidates in parallel.
func (e *Engine) evaluatePopulation(pop []genome.Chromosome) []float64 {
	n := len(pop)
	fitnesses := make([]float64, n)

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan int, n)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				fitnesses[idx] = e.fitness(pop[idx])
			}
		}()
	}

	for i := range pop {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return fitnesses
}
