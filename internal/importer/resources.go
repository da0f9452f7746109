package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/models"
	"ecopoweratlas/internal/services"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ResourceOptions configures a tabular metrics import run.
type ResourceOptions struct {
	DatasetName   string
	DatasetSource string
	ResourceType  string
	DefaultMetric string
}

type ResourceImporter struct {
	db       *bun.DB
	datasets *services.DatasetService
	metrics  *services.ResourceMetricService
	logr     *zap.Logger
}

func NewResourceImporter(db *bun.DB, datasets *services.DatasetService, metrics *services.ResourceMetricService, logr *zap.Logger) *ResourceImporter {
	return &ResourceImporter{db: db, datasets: datasets, metrics: metrics, logr: logr}
}

// Run loads a CSV or Excel file of per-country metric rows and upserts them
// under a single dataset. Re-running the same file updates rows in place.
func (im *ResourceImporter) Run(ctx context.Context, path string, opts ResourceOptions) (ImportResult, error) {
	var result ImportResult

	if opts.DatasetName == "" {
		opts.DatasetName = "Imported resources"
	}
	if opts.ResourceType == "" {
		opts.ResourceType = models.ResourceTypeSolar
	}
	if opts.DefaultMetric == "" {
		opts.DefaultMetric = "potential_kwh"
	}

	rows, err := loadRows(path)
	if err != nil {
		return result, err
	}

	dataset, err := im.datasets.GetOrCreateByName(ctx, opts.DatasetName, models.DatasetTypeResource, opts.DatasetSource)
	if err != nil {
		return result, err
	}

	for _, row := range rows {
		iso3 := strings.ToUpper(strings.TrimSpace(cell(row, "iso3", "ISO3")))
		if iso3 == "" {
			im.logr.Warn("row skipped: missing iso3")
			result.SkippedNoKey++
			continue
		}

		country, err := im.getOrCreateCountry(ctx, iso3, row)
		if err != nil {
			return result, err
		}

		metricName := cell(row, "metric", "Metric")
		if metricName == "" {
			metricName = opts.DefaultMetric
		}
		unit := cell(row, "unit", "Unit")
		year := parseYear(cell(row, "year", "Year"))

		value, err := decimal.NewFromString(strings.TrimSpace(cell(row, "value", "Value")))
		if err != nil {
			im.logr.Warn("row skipped: invalid value",
				zap.String("iso3", iso3), zap.String("metric", metricName))
			result.SkippedBadValue++
			continue
		}

		now := time.Now().UTC()
		metric := &models.ResourceMetric{
			DatasetID:    dataset.ID,
			CountryID:    country.ID,
			ResourceType: opts.ResourceType,
			Metric:       metricName,
			Value:        value,
			Unit:         unit,
			Year:         year,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := im.metrics.Upsert(ctx, metric); err != nil {
			return result, err
		}
		result.Imported++
	}

	return result, nil
}

func (im *ResourceImporter) getOrCreateCountry(ctx context.Context, iso3 string, row map[string]string) (*models.Country, error) {
	country := new(models.Country)
	err := im.db.NewSelect().
		Model(country).
		Where("UPPER(cty.iso3) = ?", iso3).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return country, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	name := strings.TrimSpace(cell(row, "country", "Country"))
	if name == "" {
		name = iso3
	}
	iso2 := strings.ToUpper(strings.TrimSpace(cell(row, "iso2", "ISO2")))
	if iso2 == "" {
		iso2 = prefix2(iso3)
	}

	now := time.Now().UTC()
	country = &models.Country{
		Name:      name,
		ISO2:      iso2,
		ISO3:      iso3,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := im.db.NewInsert().Model(country).Exec(ctx); err != nil {
		return nil, err
	}
	return country, nil
}

func loadRows(path string) ([]map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return readCSV(path)
	case ".xlsx", ".xls":
		return readExcel(path)
	default:
		return nil, apperrors.SourceUnavailable("unsupported file extension: %s", filepath.Ext(path))
	}
}

func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.SourceUnavailable("cannot read %s: %v", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.SourceUnavailable("cannot read header of %s: %v", path, err)
	}
	if len(header) > 0 {
		// utf-8-sig exports carry a BOM on the first column name
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.SourceUnavailable("cannot read %s: %v", path, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readExcel(path string) ([]map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.SourceUnavailable("cannot read %s: %v", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.SourceUnavailable("no sheets in %s", path)
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.SourceUnavailable("cannot read sheet of %s: %v", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	var rows []map[string]string
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cell(row map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := row[key]; v != "" {
			return v
		}
	}
	return ""
}

func parseYear(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if year, err := strconv.Atoi(raw); err == nil {
		return &year
	}
	// Excel sometimes hands back "2021.0"
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		year := int(f)
		return &year
	}
	return nil
}
