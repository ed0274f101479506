package grid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilianp07/drplan/core/model"
)

const (
	SnapshotFile = "current_snapshot.json"
	ForecastFile = "forecast_24h.json"
)

// FileSource reads the grid snapshot and forecast exported into a directory.
type FileSource struct {
	Dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

func (f *FileSource) Name() string { return "file" }

// Load reads both files. Either one missing makes the whole data set
// unavailable.
func (f *FileSource) Load(ctx context.Context) (model.GridData, error) {
	if err := ctx.Err(); err != nil {
		return model.GridData{}, err
	}
	raw, err := os.ReadFile(filepath.Join(f.Dir, SnapshotFile))
	if err != nil {
		return model.GridData{}, fmt.Errorf("read snapshot: %w", err)
	}
	snapshot, err := decodeSnapshot(raw)
	if err != nil {
		return model.GridData{}, err
	}
	raw, err = os.ReadFile(filepath.Join(f.Dir, ForecastFile))
	if err != nil {
		return model.GridData{}, fmt.Errorf("read forecast: %w", err)
	}
	forecast, err := decodeForecast(raw)
	if err != nil {
		return model.GridData{}, err
	}
	return model.GridData{Snapshot: snapshot, Forecast: forecast}, nil
}
