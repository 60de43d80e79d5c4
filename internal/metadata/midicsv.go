package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sfjuke/sfjuke/internal/proc"
)

// Midicsv extracts metadata by dumping the track with the midicsv tool.
type Midicsv struct {
	Binary string
	Runner proc.Runner
}

// NewMidicsv returns a Midicsv extractor using binary, or "midicsv".
func NewMidicsv(binary string, runner proc.Runner) *Midicsv {
	if binary == "" {
		binary = "midicsv"
	}
	if runner == nil {
		runner = proc.NewExec(0)
	}
	return &Midicsv{Binary: binary, Runner: runner}
}

// Extract implements Extractor. The CSV dump is written to workdir and
// removed before returning.
func (m *Midicsv) Extract(ctx context.Context, track, workdir string) (Result, error) {
	details, err := FileDetails(track)
	if err != nil {
		return Result{}, err
	}
	res := Result{Details: details}

	f, err := os.CreateTemp(workdir, "metadata-*.csv")
	if err != nil {
		return res, fmt.Errorf("unable to create metadata dump: %w", err)
	}
	csvPath := f.Name()
	_ = f.Close()
	defer os.Remove(csvPath) //nolint:errcheck

	if _, err := m.Runner.Run(ctx, m.Binary, details.Path, csvPath); err != nil {
		return res, fmt.Errorf("metadata dump of %s failed: %w", filepath.Base(track), err)
	}

	dump, err := os.Open(csvPath)
	if err != nil {
		return res, fmt.Errorf("unable to read metadata dump: %w", err)
	}
	defer dump.Close() //nolint:errcheck

	res.Lines, err = FilterCSV(dump)
	if err != nil {
		return res, fmt.Errorf("unable to read metadata dump: %w", err)
	}
	return res, nil
}
