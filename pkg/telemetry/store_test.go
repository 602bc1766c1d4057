package telemetry

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/evolving_images/pkg/checkpoint"
	"github.com/wildfunctions/evolving_images/pkg/genome"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordRecent(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	for i, p := range []checkpoint.Progress{
		{Time: base, Generation: 1, Fitness: 0.1, Written: true, Path: "out/image-0000001.png"},
		{Time: base.Add(time.Second), Generation: 100, Fitness: 0.1, Speed: 100},
		{Time: base.Add(2 * time.Second), Generation: 200, Fitness: 0.4, Speed: 100, Written: true, Path: "out/image-0000200.png"},
	} {
		require.NoError(t, s.Record(ctx, p), "record %d", i)
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 200, got[0].Generation)
	assert.Equal(t, 0.4, got[0].Fitness)
	assert.True(t, got[0].Written)
	assert.Equal(t, "out/image-0000200.png", got[0].Path)
	assert.True(t, got[0].Time.Equal(base.Add(2*time.Second)))
	assert.Equal(t, 100, got[1].Generation)
	assert.False(t, got[1].Written)
	assert.Empty(t, got[1].Path)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_Empty(t *testing.T) {
	got, err := openMemory(t).Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "telemetry.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), checkpoint.Progress{Generation: 7, Fitness: 0.5}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Generation)
	assert.False(t, got[0].Time.IsZero())
}

func TestStore_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestStore_RecordCancelled(t *testing.T) {
	s := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Record(ctx, checkpoint.Progress{Generation: 1}))
}

// The supervisor records every triggered generation, written or not.
func TestStore_AsSupervisorRecorder(t *testing.T) {
	s := openMemory(t)
	sup, err := checkpoint.New(checkpoint.Config{
		Dir:      t.TempDir(),
		Gap:      2,
		Width:    4,
		Height:   4,
		MinSize:  8,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Recorder: s,
	})
	require.NoError(t, err)

	c := genome.RandomChromosome(genome.Shape{Polygons: 2, Vertices: 3}, rand.New(rand.NewSource(42)))
	ctx := context.Background()
	for gen, f := range []float64{0.1, 0.3, 0.2, 0.5} {
		_, err := sup.Observe(ctx, checkpoint.Event{Generation: gen + 1, Best: c, BestFitness: f, PopulationSize: 4})
		require.NoError(t, err)
	}

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{4, 2, 1}, []int{got[0].Generation, got[1].Generation, got[2].Generation})
	for _, p := range got {
		assert.True(t, p.Written)
		assert.NotEmpty(t, p.Path)
	}
}
