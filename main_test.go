package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/evolving_images/pkg/checkpoint"
	"github.com/wildfunctions/evolving_images/pkg/engine"
	"github.com/wildfunctions/evolving_images/pkg/telemetry"
)

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := parseFlags([]string{"-input-image", "in.png"})
	require.NoError(t, err)
	want := engine.DefaultConfig()
	want.Input = "in.png"
	assert.Equal(t, want, cfg)
}

func TestParseFlags_ConfigThenOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"population: 12\npolygon_count: 7\ncrossover: mean\n"), 0o644))

	cfg, err := parseFlags([]string{"-config", path, "-population", "30", "-output-dir", "snaps"})
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Population)
	assert.Equal(t, 7, cfg.PolygonCount)
	assert.Equal(t, "mean", cfg.Crossover)
	assert.Equal(t, "snaps", cfg.OutDir)
}

func TestParseFlags_BadConfig(t *testing.T) {
	_, err := parseFlags([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 20), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "target.png")
	writeTestImage(t, input, 10, 8)

	cfg := engine.DefaultConfig()
	cfg.Input = input
	cfg.OutDir = filepath.Join(dir, "out")
	cfg.TelemetryDB = filepath.Join(dir, "telemetry.db")
	cfg.Generations = 12
	cfg.ImageGap = 5
	cfg.Population = 8
	cfg.PolygonCount = 3
	cfg.PolygonVertices = 3
	cfg.Workers = 2
	cfg.Seed = 42
	cfg.Format = "json"

	var err error
	stdout := os.Stdout
	os.Stdout, err = os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	defer func() {
		os.Stdout.Close()
		os.Stdout = stdout
	}()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, run(context.Background(), logger, cfg))

	assert.FileExists(t, filepath.Join(cfg.OutDir, checkpoint.SnapshotName(1)))
	assert.FileExists(t, filepath.Join(cfg.OutDir, "best.json"))

	store, err := telemetry.Open(cfg.TelemetryDB)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	// Generations 1, 5 and 10 trigger a checkpoint.
	require.Len(t, got, 3)
	assert.Equal(t, 10, got[0].Generation)
	assert.Equal(t, 1, got[2].Generation)
}

func TestRun_MissingInput(t *testing.T) {
	cfg := engine.DefaultConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Error(t, run(context.Background(), logger, cfg))

	cfg.Input = filepath.Join(t.TempDir(), "missing.png")
	assert.Error(t, run(context.Background(), logger, cfg))
}
