package runlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun(name string) Run {
	started := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return Run{
		StartedAt:      started,
		FinishedAt:     started.Add(10 * time.Minute),
		SampleName:     name,
		SpecimenID:     "cb-007",
		Storage:        "refrigerated",
		Notes:          "day 2",
		ProfileName:    "Meat Freshness Sweep v1",
		ProfileHash:    "deadbeef",
		Backend:        "bme68x_i2c",
		OutputPath:     "logs/2026-08-30/bme690_chicken_120000.csv",
		CapturedCycles: 10,
		Status:         StatusCompleted,
	}
}

func TestRecordAndList(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	id, err := db.Record(sampleRun("chicken"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = db.Record(sampleRun("salmon"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	runs, err := db.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, "salmon", runs[0].SampleName)
	assert.Equal(t, "chicken", runs[1].SampleName)
	assert.Equal(t, StatusCompleted, runs[0].Status)
	assert.Equal(t, 10, runs[0].CapturedCycles)
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), runs[0].StartedAt)
}

func TestListLimit(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 5; i++ {
		_, err := db.Record(sampleRun("chicken"))
		require.NoError(t, err)
	}

	runs, err := db.List(3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	assert.Equal(t, int64(5), runs[0].ID)
}

func TestBySample(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Record(sampleRun("chicken"))
	require.NoError(t, err)
	_, err = db.Record(sampleRun("salmon"))
	require.NoError(t, err)
	failed := sampleRun("chicken")
	failed.Status = StatusFailed
	failed.Error = "too many consecutive sensor read failures"
	_, err = db.Record(failed)
	require.NoError(t, err)

	runs, err := db.BySample("chicken")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, StatusFailed, runs[0].Status)
	assert.Equal(t, "too many consecutive sensor read failures", runs[0].Error)
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Record(sampleRun("chicken"))
	require.NoError(t, err)
}
