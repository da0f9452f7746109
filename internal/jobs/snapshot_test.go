package jobs

import (
	"context"
	"net/http"
	"testing"
	"time"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/database"
	"ecopoweratlas/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.CreateSchema(context.Background(), db))
	return db
}

func seedMetrics(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	kenya := &models.Country{Name: "Kenya", ISO2: "KE", ISO3: "KEN", CreatedAt: now, UpdatedAt: now}
	uganda := &models.Country{Name: "Uganda", ISO2: "UG", ISO3: "UGA", CreatedAt: now, UpdatedAt: now}
	dataset := &models.EnergyDataset{Name: "atlas", DatasetType: models.DatasetTypeResource, CreatedAt: now, UpdatedAt: now}
	for _, m := range []any{kenya, uganda, dataset} {
		_, err := db.NewInsert().Model(m).Exec(ctx)
		require.NoError(t, err)
	}

	rows := []*models.ResourceMetric{
		{DatasetID: dataset.ID, CountryID: kenya.ID, ResourceType: "solar", Metric: "ghi"},
		{DatasetID: dataset.ID, CountryID: kenya.ID, ResourceType: "wind", Metric: "speed"},
		{DatasetID: dataset.ID, CountryID: uganda.ID, ResourceType: "solar", Metric: "ghi"},
	}
	for _, m := range rows {
		m.Value = decimal.NewFromInt(1)
		m.CreatedAt, m.UpdatedAt = now, now
		_, err := db.NewInsert().Model(m).Exec(ctx)
		require.NoError(t, err)
	}
}

func waitForState(t *testing.T, d *Dispatcher, taskID, want string) *JobStatus {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, err := d.Status(taskID)
		require.NoError(t, err)
		if status.State == want {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s never reached state %s", taskID, want)
	return nil
}

func TestSnapshot_GlobalCounts(t *testing.T) {
	db := setupDB(t)
	seedMetrics(t, db)

	d := NewDispatcher(db, 4, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	taskID, err := d.Enqueue(SnapshotRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	status := waitForState(t, d, taskID, StateCompleted)
	require.NotNil(t, status.Result)
	assert.Equal(t, taskID, status.Result.TaskID)
	assert.Equal(t, 3, status.Result.TotalMetrics)
	require.Len(t, status.Result.ResourceTypes, 2)
	assert.Equal(t, "solar", status.Result.ResourceTypes[0].ResourceType)
	assert.Equal(t, int64(2), status.Result.ResourceTypes[0].Count)
	assert.False(t, status.Result.GeneratedAt.IsZero())
}

func TestSnapshot_CountryFilterCaseInsensitive(t *testing.T) {
	db := setupDB(t)
	seedMetrics(t, db)

	d := NewDispatcher(db, 4, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	taskID, err := d.Enqueue(SnapshotRequest{CountryISO3: "ken"})
	require.NoError(t, err)

	status := waitForState(t, d, taskID, StateCompleted)
	require.NotNil(t, status.Result)
	assert.Equal(t, 2, status.Result.TotalMetrics)
	assert.Len(t, status.Result.ResourceTypes, 2)
}

func TestSnapshot_EnqueueAfterStopRejected(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db, 4, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Stop()
	d.Stop() // idempotent

	_, err := d.Enqueue(SnapshotRequest{})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperrors.CodeOf(err))
}

func TestSnapshot_UnknownTask(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db, 4, zap.NewNop())

	_, err := d.Status("no-such-task")
	assert.Error(t, err)
}
