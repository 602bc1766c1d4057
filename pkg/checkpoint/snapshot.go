package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"math"
	"os"

	"github.com/wildfunctions/evolving_images/pkg/genome"
)

// SnapshotName returns the file name of the snapshot for a generation.
func SnapshotName(generation int) string {
	return fmt.Sprintf("image-%07d.png", generation)
}

// SnapshotSize scales width x height so the shorter side is at least
// minSize, keeping the aspect ratio and never shrinking below native size.
func SnapshotSize(width, height, minSize int) (int, int) {
	w, h := float64(width), float64(height)
	scale := math.Max(math.Max(float64(minSize)/w, float64(minSize)/h), 1)
	return int(math.Round(scale * w)), int(math.Round(scale * h))
}

// WriteImage renders c at width x height and writes it to path as PNG. A
// partially written file is removed.
func WriteImage(path string, c genome.Chromosome, width, height int) error {
	return writeFile(path, func(f *os.File) error {
		return png.Encode(f, c.Render(width, height))
	})
}

// WriteGenome writes c to path as indented JSON.
func WriteGenome(path string, c genome.Chromosome) error {
	return writeFile(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	})
}

func writeFile(path string, write func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return write(f)
}
