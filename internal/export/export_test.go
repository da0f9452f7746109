package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"ecopoweratlas/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteHydroSitesCSV(t *testing.T) {
	sites := []models.HydroSite{
		{
			ID:                 1,
			Name:               "Seven Forks",
			CountryISO3:        "KEN",
			RegionName:         "Eastern",
			Status:             models.SiteStatusOperational,
			HeadM:              decimal.NullDecimal{Decimal: decimal.NewFromFloat(45.5), Valid: true},
			StorageCapacityMWh: decimal.NullDecimal{Decimal: decimal.NewFromInt(1000), Valid: true},
		},
		{ID: 2, Name: "Unsurveyed", CountryISO3: "UGA", Status: models.SiteStatusIdentified},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHydroSitesCSV(&buf, sites))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, hydroSiteHeader, records[0])
	assert.Equal(t, []string{"1", "Seven Forks", "KEN", "Eastern", "operational", "", "", "45.5", "1000", ""}, records[1])
	// null figures stay empty rather than rendering as zero
	assert.Equal(t, "", records[2][7])
}

func TestWriteResourceMetricsCSV(t *testing.T) {
	year := 2021
	metrics := []models.ResourceMetric{
		{
			ID:           7,
			CountryISO3:  "KEN",
			ResourceType: models.ResourceTypeSolar,
			Metric:       "ghi",
			Value:        decimal.NewFromFloat(5.2),
			Unit:         "kWh/m2",
			Year:         &year,
			DatasetID:    3,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResourceMetricsCSV(&buf, metrics))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"7", "KEN", "solar", "ghi", "5.2", "kWh/m2", "2021", "3"}, records[1])
}

func TestWriteResourceMetricsPDF(t *testing.T) {
	metrics := make([]models.ResourceMetric, 0, 60)
	for i := 0; i < 60; i++ {
		metrics = append(metrics, models.ResourceMetric{
			CountryISO3:  "KEN",
			ResourceType: models.ResourceTypeSolar,
			Metric:       "ghi",
			Value:        decimal.NewFromInt(int64(i)),
		})
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResourceMetricsPDF(&buf, metrics, "Resource Metrics Report"))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF"))
	assert.Greater(t, buf.Len(), 500)
}
