package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"ecopoweratlas/internal/models"

	"github.com/shopspring/decimal"
)

var hydroSiteHeader = []string{
	"id", "name", "country_iso3", "region", "status",
	"latitude", "longitude", "head_m", "storage_capacity_mwh", "turbine_capacity_mw",
}

var resourceMetricHeader = []string{
	"id", "country_iso3", "resource_type", "metric", "value", "unit", "year", "dataset",
}

// WriteHydroSitesCSV streams sites as CSV rows to w.
func WriteHydroSitesCSV(w io.Writer, sites []models.HydroSite) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(hydroSiteHeader); err != nil {
		return err
	}
	for _, site := range sites {
		record := []string{
			strconv.FormatInt(site.ID, 10),
			site.Name,
			site.CountryISO3,
			site.RegionName,
			site.Status,
			nullDecimalString(site.Latitude),
			nullDecimalString(site.Longitude),
			nullDecimalString(site.HeadM),
			nullDecimalString(site.StorageCapacityMWh),
			nullDecimalString(site.TurbineCapacityMW),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteResourceMetricsCSV streams metrics as CSV rows to w.
func WriteResourceMetricsCSV(w io.Writer, metrics []models.ResourceMetric) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(resourceMetricHeader); err != nil {
		return err
	}
	for _, metric := range metrics {
		year := ""
		if metric.Year != nil {
			year = strconv.Itoa(*metric.Year)
		}
		record := []string{
			strconv.FormatInt(metric.ID, 10),
			metric.CountryISO3,
			metric.ResourceType,
			metric.Metric,
			metric.Value.String(),
			metric.Unit,
			year,
			strconv.FormatInt(metric.DatasetID, 10),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
