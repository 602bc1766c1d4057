// Command evolving_images approximates an image with a fixed number of
// translucent polygons by evolving them with a genetic algorithm.
//
// Usage:
//
//	evolving_images -input-image monalisa.png
//	evolving_images -config engine.yaml -input-image monalisa.png -output-dir out
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/wildfunctions/evolving_images/pkg/alter"
	"github.com/wildfunctions/evolving_images/pkg/checkpoint"
	"github.com/wildfunctions/evolving_images/pkg/engine"
	"github.com/wildfunctions/evolving_images/pkg/fitness"
	"github.com/wildfunctions/evolving_images/pkg/strategy"
	"github.com/wildfunctions/evolving_images/pkg/telemetry"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("evolution failed", "error", err)
		os.Exit(1)
	}
}

// parseFlags reads the command line. When -config is given, the file is
// loaded first and the command line is applied on top of it.
func parseFlags(args []string) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	var configPath string
	fs := newFlagSet(&cfg, &configPath)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if configPath == "" {
		return cfg, nil
	}

	loaded, err := engine.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	cfg = loaded
	if err := newFlagSet(&cfg, &configPath).Parse(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newFlagSet(cfg *engine.Config, configPath *string) *flag.FlagSet {
	fs := flag.NewFlagSet("evolving_images", flag.ExitOnError)
	fs.StringVar(configPath, "config", *configPath, "engine parameter file (.yaml or .toml)")
	fs.StringVar(&cfg.Input, "input-image", cfg.Input, "image to approximate (png, jpeg, gif, bmp, webp)")
	fs.StringVar(&cfg.OutDir, "output-dir", cfg.OutDir, "directory for snapshot images")
	fs.IntVar(&cfg.Generations, "generations", cfg.Generations, "number of generations (<= 0 runs until interrupted)")
	fs.IntVar(&cfg.ImageGap, "image-generation", cfg.ImageGap, "generations between snapshot checks")
	fs.IntVar(&cfg.Population, "population", cfg.Population, "population size")
	fs.IntVar(&cfg.PolygonCount, "polygons", cfg.PolygonCount, "polygons per image")
	fs.IntVar(&cfg.PolygonVertices, "vertices", cfg.PolygonVertices, "vertices per polygon")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (0 = random)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of parallel fitness workers")
	fs.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "evolution strategy ("+strings.Join(strategy.Names(), ", ")+")")
	fs.StringVar(&cfg.Crossover, "crossover", cfg.Crossover, "recombinator ("+strings.Join(alter.Names(), ", ")+"; empty disables)")
	fs.Float64Var(&cfg.TargetFitness, "target-fitness", cfg.TargetFitness, "stop once this fitness is reached (0 disables)")
	fs.StringVar(&cfg.TelemetryDB, "telemetry-db", cfg.TelemetryDB, "SQLite file recording checkpoint progress")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "final report format (text, json)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "verbose output per generation")
	return fs
}

func run(ctx context.Context, logger *slog.Logger, cfg engine.Config) error {
	if cfg.Input == "" {
		return errors.New("-input-image is required")
	}

	img, err := fitness.LoadTarget(cfg.Input)
	if err != nil {
		return err
	}
	target := fitness.NewTarget(img, cfg.ReferenceSize)

	e, err := engine.New(cfg, target.Evaluate)
	if err != nil {
		return err
	}
	e.SetLogger(logger)

	var recorder checkpoint.Recorder
	if cfg.TelemetryDB != "" {
		store, err := telemetry.Open(cfg.TelemetryDB)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	// Snapshots are rendered from the native image size, not the reduced
	// reference the fitness function compares against.
	bounds := img.Bounds()
	sup, err := checkpoint.New(checkpoint.Config{
		Dir:      cfg.OutDir,
		Gap:      cfg.ImageGap,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Logger:   logger,
		Recorder: recorder,
	})
	if err != nil {
		return err
	}

	refW, refH := target.Size()
	snapW, snapH := sup.SnapshotSize()
	logger.Info("Starting evolution",
		"input", cfg.Input,
		"output", cfg.OutDir,
		"generations", cfg.Generations,
		"image_generation", cfg.ImageGap,
		"population", cfg.Population,
		"genome", cfg.Shape().String(),
		"strategy", cfg.Strategy,
		"crossover", cfg.Crossover,
		"reference", fmt.Sprintf("%dx%d", refW, refH),
		"snapshot", fmt.Sprintf("%dx%d", snapW, snapH),
		"workers", cfg.Workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan checkpoint.Event, 1)
	done := make(chan struct{})
	var supErr error
	go func() {
		defer close(done)
		if supErr = sup.Run(ctx, events); supErr != nil {
			cancel()
		}
	}()

	report := e.Run(ctx, func(r engine.Result) {
		ev := checkpoint.Event{
			Generation:     r.Generation,
			Best:           r.BestEver,
			BestFitness:    r.BestEverFitness,
			PopulationSize: r.PopulationSize,
			MeanFitness:    r.MeanFitness,
		}
		select {
		case events <- ev:
		case <-done:
		}
	})
	close(events)
	<-done
	sup.Stop()

	if report.Best.Len() > 0 {
		path := filepath.Join(cfg.OutDir, "best.json")
		if err := checkpoint.WriteGenome(path, report.Best); err != nil {
			logger.Warn("write genome", "file", path, "error", err)
		}
	}

	switch cfg.Format {
	case "json":
		if err := engine.WriteJSONFinal(os.Stdout, report); err != nil {
			return fmt.Errorf("writing JSON: %w", err)
		}
	default:
		engine.WriteTextFinal(os.Stdout, report)
	}

	if supErr != nil && !errors.Is(supErr, context.Canceled) {
		return supErr
	}
	return nil
}
