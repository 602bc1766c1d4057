// Package checkpoint turns the per-generation results of an evolution run
// into durable artifacts: snapshot images of the best chromosome, written
// only when it strictly improves on the last persisted one, and progress
// telemetry.
//
// A Supervisor consumes one ordered stream of events and must be driven from
// a single goroutine; only Stop may be called concurrently.
package checkpoint

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wildfunctions/evolving_images/pkg/genome"
)

// DefaultMinSize is the smallest short-side pixel size of a snapshot.
const DefaultMinSize = 500

var (
	// ErrOutOfOrder is returned for an event whose generation does not
	// strictly follow the previous one.
	ErrOutOfOrder = errors.New("generation out of order")
	// ErrStopped is returned for events observed after Stop.
	ErrStopped = errors.New("supervisor stopped")
)

// Event is what the evolution engine reports once per generation.
type Event struct {
	Generation     int
	Best           genome.Chromosome
	BestFitness    float64
	PopulationSize int
	MeanFitness    float64
}

// Progress is one telemetry record, emitted for every triggered generation.
type Progress struct {
	Time       time.Time `json:"time"`
	Generation int       `json:"generation"`
	Fitness    float64   `json:"fitness"`
	Speed      float64   `json:"speed"`
	Written    bool      `json:"written"`
	Path       string    `json:"path,omitempty"`
}

// Recorder persists progress records. Failures are logged and do not stop
// the run.
type Recorder interface {
	Record(ctx context.Context, p Progress) error
}

// Config parameterizes a Supervisor.
type Config struct {
	Dir      string // snapshot directory, created if absent
	Gap      int    // generations between checkpoints
	Width    int    // native target width
	Height   int    // native target height
	MinSize  int    // minimum snapshot short side; DefaultMinSize when 0
	Logger   *slog.Logger
	Recorder Recorder
	Now      func() time.Time
}

// Snapshot is the best chromosome persisted so far.
type Snapshot struct {
	Generation int
	Fitness    float64
	Chromosome genome.Chromosome
	Path       string
}

// Decision reports what Observe did with an event.
type Decision struct {
	Triggered bool
	Written   bool
	Speed     float64
	Path      string
}

// Supervisor decides which generations are checkpointed and persists
// improving snapshots.
type Supervisor struct {
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
	width   int
	height  int
	last    time.Time
	lastGen int
	best    *Snapshot

	stop     chan struct{}
	stopOnce sync.Once
}

// New validates cfg and creates the snapshot directory.
func New(cfg Config) (*Supervisor, error) {
	if cfg.Dir == "" {
		return nil, errors.New("checkpoint: output directory is required")
	}
	if cfg.Gap < 1 {
		return nil, fmt.Errorf("checkpoint: generation gap must be >= 1, got %d", cfg.Gap)
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, fmt.Errorf("checkpoint: invalid image size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.MinSize == 0 {
		cfg.MinSize = DefaultMinSize
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create output dir %s: %w", cfg.Dir, err)
	}

	s := &Supervisor{
		cfg:  cfg,
		log:  cfg.Logger,
		now:  cfg.Now,
		stop: make(chan struct{}),
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.width, s.height = SnapshotSize(cfg.Width, cfg.Height, cfg.MinSize)
	s.last = s.now()
	return s, nil
}

// Observe processes one generation event.
func (s *Supervisor) Observe(ctx context.Context, ev Event) (Decision, error) {
	if s.stopped() {
		return Decision{}, ErrStopped
	}
	if ev.Generation < 1 || ev.Generation <= s.lastGen {
		return Decision{}, fmt.Errorf("%w: got %d after %d", ErrOutOfOrder, ev.Generation, s.lastGen)
	}
	s.lastGen = ev.Generation

	if ev.Generation%s.cfg.Gap != 0 && ev.Generation != 1 {
		return Decision{}, nil
	}

	now := s.now()
	d := Decision{Triggered: true, Speed: throughput(s.cfg.Gap, now.Sub(s.last))}
	s.last = now

	if s.best == nil || cmp.Compare(ev.BestFitness, s.best.Fitness) > 0 {
		path := filepath.Join(s.cfg.Dir, SnapshotName(ev.Generation))
		s.log.Info("writing snapshot",
			"file", path,
			"generation", ev.Generation,
			"fitness", fmt.Sprintf("%1.4f", ev.BestFitness),
			"speed", fmt.Sprintf("%1.2f", d.Speed))

		if err := WriteImage(path, ev.Best, s.width, s.height); err != nil {
			return d, fmt.Errorf("checkpoint: generation %d: %w", ev.Generation, err)
		}
		s.best = &Snapshot{
			Generation: ev.Generation,
			Fitness:    ev.BestFitness,
			Chromosome: ev.Best,
			Path:       path,
		}
		d.Written, d.Path = true, path
	} else {
		s.log.Info("no improvement",
			"generation", ev.Generation,
			"fitness", fmt.Sprintf("%1.4f", ev.BestFitness),
			"speed", fmt.Sprintf("%1.2f", d.Speed))
	}

	if s.cfg.Recorder != nil {
		p := Progress{
			Time:       now,
			Generation: ev.Generation,
			Fitness:    ev.BestFitness,
			Speed:      d.Speed,
			Written:    d.Written,
			Path:       d.Path,
		}
		if err := s.cfg.Recorder.Record(ctx, p); err != nil {
			s.log.Warn("record progress", "generation", ev.Generation, "error", err)
		}
	}
	return d, nil
}

// Run observes events in order until the channel closes, ctx is done, Stop
// is called, or a snapshot write fails.
func (s *Supervisor) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := s.Observe(ctx, ev); err != nil {
				if errors.Is(err, ErrStopped) {
					return nil
				}
				return err
			}
		}
	}
}

// Stop makes the supervisor refuse further events. A write already in
// progress completes.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Supervisor) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Best returns the last persisted snapshot, if any.
func (s *Supervisor) Best() (Snapshot, bool) {
	if s.best == nil {
		return Snapshot{}, false
	}
	return *s.best, true
}

// SnapshotSize returns the render size for snapshots.
func (s *Supervisor) SnapshotSize() (int, int) { return s.width, s.height }

func throughput(gap int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(gap) / elapsed.Seconds()
}
