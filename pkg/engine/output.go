package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wildfunctions/evolving_images/pkg/genome"
	"github.com/wildfunctions/evolving_images/pkg/strategy"
)

// StopReason tells why a run ended.
type StopReason string

const (
	StopBudget    StopReason = "generation budget spent"
	StopTarget    StopReason = "target fitness reached"
	StopCancelled StopReason = "cancelled"
)

// GenerationReport summarizes one generation.
type GenerationReport struct {
	Generation  int            `json:"generation"`
	BestFitness float64        `json:"best_fitness"`
	MeanFitness float64        `json:"mean_fitness"`
	Stats       strategy.Stats `json:"stats"`
}

// FinalReport summarizes the entire run.
type FinalReport struct {
	Config         Config             `json:"config"`
	History        []GenerationReport `json:"history,omitempty"`
	Generations    int                `json:"generations"`
	Reason         StopReason         `json:"reason"`
	Best           genome.Chromosome  `json:"best"`
	BestFitness    float64            `json:"best_fitness"`
	BestGeneration int                `json:"best_generation"`
	Mutated        int                `json:"mutated_genes"`
	Recombined     int                `json:"recombined_genes"`
	Elapsed        time.Duration      `json:"elapsed_ns"`
}

// WriteTextReport writes a generation report in human-readable format.
func WriteTextReport(w io.Writer, r GenerationReport) {
	fmt.Fprintf(w, "Gen %7d | Best: %.4f | Mean: %.4f | mutated %d, recombined %d\n",
		r.Generation, r.BestFitness, r.MeanFitness, r.Stats.Mutated, r.Stats.Recombined)
}

// WriteTextFinal writes the final report in human-readable format.
func WriteTextFinal(w io.Writer, r FinalReport) {
	for _, g := range r.History {
		WriteTextReport(w, g)
	}
	speed := 0.0
	if s := r.Elapsed.Seconds(); s > 0 {
		speed = float64(r.Generations) / s
	}
	fmt.Fprintln(w, "\n========== FINAL RESULT ==========")
	fmt.Fprintf(w, "Strategy:    %s\n", r.Config.Strategy)
	fmt.Fprintf(w, "Crossover:   %s (p=%.2f)\n", r.Config.Crossover, r.Config.CrossoverProbability)
	fmt.Fprintf(w, "Genome:      %s\n", r.Config.Shape())
	fmt.Fprintf(w, "Generations: %d (%s)\n", r.Generations, r.Reason)
	fmt.Fprintf(w, "Fitness:     %.4f (generation %d)\n", r.BestFitness, r.BestGeneration)
	fmt.Fprintf(w, "Altered:     %d mutated, %d recombined genes\n", r.Mutated, r.Recombined)
	fmt.Fprintf(w, "Elapsed:     %s (%.2f generations/s)\n", r.Elapsed.Round(time.Millisecond), speed)
	fmt.Fprintln(w, "==================================")
}

// WriteJSONFinal writes the final report as JSON.
func WriteJSONFinal(w io.Writer, r FinalReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
