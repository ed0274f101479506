package grid

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGridFiles(t *testing.T, snapshot, forecast string) string {
	t.Helper()
	dir := t.TempDir()
	if snapshot != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, SnapshotFile), []byte(snapshot), 0o600))
	}
	if forecast != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ForecastFile), []byte(forecast), 0o600))
	}
	return dir
}

func TestFileSource_Load(t *testing.T) {
	dir := writeGridFiles(t,
		`{"timestamp":"2025-07-15T12:00:00","system_load_mw":72000,"reserves_mw":6000,"price_per_mwh":60,"capacity_mw":80000}`,
		`{"timestamp":"2025-07-15T12:00:00Z","peak_load_mw":76000,"peak_hour":18,"forecast_hours":[0,1]}`,
	)
	data, err := NewFileSource(dir).Load(context.Background())
	require.NoError(t, err)
	require.True(t, data.Available())
	assert.Equal(t, 72000.0, *data.Snapshot.SystemLoadMW)
	assert.Equal(t, 6000.0, *data.Snapshot.ReservesMW)
	assert.Equal(t, time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC), data.Snapshot.Timestamp)
	assert.Equal(t, 18, *data.Forecast.PeakHour)
	assert.Nil(t, data.Forecast.Confidence)
}

func TestFileSource_MissingFieldsStayNil(t *testing.T) {
	dir := writeGridFiles(t, `{"system_load_mw":70000}`, `{}`)
	data, err := NewFileSource(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data.Snapshot.PricePerMWh)
	assert.Nil(t, data.Forecast.PeakHour)
	assert.True(t, data.Snapshot.Timestamp.IsZero())
}

func TestFileSource_Errors(t *testing.T) {
	_, err := NewFileSource(writeGridFiles(t, "", `{}`)).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewFileSource(writeGridFiles(t, `{}`, "")).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewFileSource(writeGridFiles(t, `{not json`, `{}`)).Load(context.Background())
	assert.Error(t, err)

	_, err = NewFileSource(writeGridFiles(t, `{}`, `{"peak_hour":27}`)).Load(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFileSource(t.TempDir()).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
