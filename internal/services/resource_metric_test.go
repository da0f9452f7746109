package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/models"
	"ecopoweratlas/internal/query"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceMetricUpsert_Idempotent(t *testing.T) {
	db := setupDB(t)
	svc := NewResourceMetricService(db)
	ctx := context.Background()

	country := seedCountry(t, db, "Kenya", "KE", "KEN")
	dataset := seedDataset(t, db, "solar atlas", models.DatasetTypeResource)

	build := func(value float64) *models.ResourceMetric {
		now := time.Now().UTC()
		return &models.ResourceMetric{
			DatasetID:    dataset.ID,
			CountryID:    country.ID,
			ResourceType: models.ResourceTypeSolar,
			Metric:       "ghi",
			Value:        decimal.NewFromFloat(value),
			Unit:         "kWh/m2",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	require.NoError(t, svc.Upsert(ctx, build(123.4)))
	require.NoError(t, svc.Upsert(ctx, build(223.4)))

	var metrics []models.ResourceMetric
	err := db.NewSelect().Model(&metrics).Scan(ctx)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.True(t, metrics[0].Value.Equal(decimal.NewFromFloat(223.4)),
		"value = %s", metrics[0].Value)
}

func TestResourceMetricCreate_DuplicateNaturalKey(t *testing.T) {
	db := setupDB(t)
	svc := NewResourceMetricService(db)
	ctx := context.Background()

	country := seedCountry(t, db, "Kenya", "KE", "KEN")
	dataset := seedDataset(t, db, "solar atlas", models.DatasetTypeResource)

	input := ResourceMetricInput{
		Dataset:      dataset.ID,
		Country:      country.ID,
		ResourceType: models.ResourceTypeSolar,
		Metric:       "ghi",
		Value:        5.2,
	}
	_, err := svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = svc.Create(ctx, input)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperrors.CodeOf(err))
}

func TestResourceMetricTimeseries_Capped(t *testing.T) {
	db := setupDB(t)
	svc := NewResourceMetricService(db)
	ctx := context.Background()

	country := seedCountry(t, db, "Kenya", "KE", "KEN")
	dataset := seedDataset(t, db, "solar atlas", models.DatasetTypeResource)
	for i := 0; i < TimeseriesRowCap+20; i++ {
		seedMetric(t, db, dataset.ID, country.ID, models.ResourceTypeSolar, fmt.Sprintf("metric_%d", i), float64(i))
	}

	metrics, err := svc.Timeseries(ctx, query.ListParams{})
	require.NoError(t, err)
	assert.Len(t, metrics, TimeseriesRowCap)
}

func TestResourceMetricList_FilterByCountryISO3(t *testing.T) {
	db := setupDB(t)
	svc := NewResourceMetricService(db)
	ctx := context.Background()

	kenya := seedCountry(t, db, "Kenya", "KE", "KEN")
	uganda := seedCountry(t, db, "Uganda", "UG", "UGA")
	dataset := seedDataset(t, db, "solar atlas", models.DatasetTypeResource)
	seedMetric(t, db, dataset.ID, kenya.ID, models.ResourceTypeSolar, "ghi", 5.2)
	seedMetric(t, db, dataset.ID, uganda.ID, models.ResourceTypeSolar, "ghi", 4.8)

	metrics, count, err := svc.List(ctx, query.ListParams{
		Filters:  map[string]string{"country_iso3": "ken"},
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, metrics, 1)
	assert.Equal(t, "KEN", metrics[0].CountryISO3)
	assert.Equal(t, "Kenya", metrics[0].CountryName)
}

func TestResourceMetricDelete_NotFound(t *testing.T) {
	db := setupDB(t)
	svc := NewResourceMetricService(db)

	err := svc.Delete(context.Background(), 9999)
	assert.Equal(t, http.StatusNotFound, apperrors.CodeOf(err))
}
