package services

import (
	"context"
	"testing"
	"time"

	"ecopoweratlas/internal/database"
	"ecopoweratlas/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.CreateSchema(context.Background(), db))
	return db
}

func seedCountry(t *testing.T, db *bun.DB, name, iso2, iso3 string) *models.Country {
	t.Helper()

	now := time.Now().UTC()
	country := &models.Country{
		Name: name, ISO2: iso2, ISO3: iso3,
		CreatedAt: now, UpdatedAt: now,
	}
	_, err := db.NewInsert().Model(country).Exec(context.Background())
	require.NoError(t, err)
	return country
}

func seedRegion(t *testing.T, db *bun.DB, countryID int64, name string) *models.Region {
	t.Helper()

	now := time.Now().UTC()
	region := &models.Region{
		CountryID: countryID, Name: name,
		CreatedAt: now, UpdatedAt: now,
	}
	_, err := db.NewInsert().Model(region).Exec(context.Background())
	require.NoError(t, err)
	return region
}

func seedDataset(t *testing.T, db *bun.DB, name, datasetType string) *models.EnergyDataset {
	t.Helper()

	now := time.Now().UTC()
	dataset := &models.EnergyDataset{
		Name: name, DatasetType: datasetType,
		CreatedAt: now, UpdatedAt: now,
	}
	_, err := db.NewInsert().Model(dataset).Exec(context.Background())
	require.NoError(t, err)
	return dataset
}

func seedMetric(t *testing.T, db *bun.DB, datasetID, countryID int64, resourceType, metric string, value float64) *models.ResourceMetric {
	t.Helper()

	now := time.Now().UTC()
	m := &models.ResourceMetric{
		DatasetID: datasetID, CountryID: countryID,
		ResourceType: resourceType, Metric: metric,
		Value:     decimal.NewFromFloat(value),
		CreatedAt: now, UpdatedAt: now,
	}
	_, err := db.NewInsert().Model(m).Exec(context.Background())
	require.NoError(t, err)
	return m
}

func seedSite(t *testing.T, db *bun.DB, countryID int64, name string, storageMWh, turbineMW float64) *models.HydroSite {
	t.Helper()

	now := time.Now().UTC()
	site := &models.HydroSite{
		CountryID: countryID, Name: name,
		StorageCapacityMWh: decimal.NullDecimal{Decimal: decimal.NewFromFloat(storageMWh), Valid: true},
		TurbineCapacityMW:  decimal.NullDecimal{Decimal: decimal.NewFromFloat(turbineMW), Valid: true},
		Status:             models.SiteStatusIdentified,
		CreatedAt:          now, UpdatedAt: now,
	}
	_, err := db.NewInsert().Model(site).Exec(context.Background())
	require.NoError(t, err)
	return site
}

func seedSeries(t *testing.T, db *bun.DB, datasetID, countryID int64, variable string, siteID *int64) *models.ClimateSeries {
	t.Helper()

	now := time.Now().UTC()
	series := &models.ClimateSeries{
		DatasetID: datasetID, CountryID: countryID,
		Variable: variable, SiteID: siteID,
		Series:    []models.SeriesPoint{{Timestamp: "2024-01-01", Value: 1.5}},
		CreatedAt: now, UpdatedAt: now,
	}
	_, err := db.NewInsert().Model(series).Exec(context.Background())
	require.NoError(t, err)
	return series
}
