package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/models"
	"ecopoweratlas/internal/query"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// TimeseriesRowCap bounds every timeseries/timeline response regardless of
// how many rows match the filter.
const TimeseriesRowCap = 500

var ResourceMetricSpec = query.Spec{
	Filterable: map[string]query.Field{
		"resource_type": {Column: "rm.resource_type"},
		"country_iso3":  {Column: "cty.iso3", Fold: true},
		"year":          {Column: "rm.year"},
	},
	Searchable:   []string{"rm.metric"},
	Sortable:     map[string]string{"value": "rm.value", "year": "rm.year"},
	DefaultOrder: []string{"rm.resource_type ASC", "cty.name ASC", "rm.metric ASC"},
}

type ResourceMetricService struct {
	db *bun.DB
}

func NewResourceMetricService(db *bun.DB) *ResourceMetricService {
	return &ResourceMetricService{db: db}
}

type ResourceMetricInput struct {
	Dataset      int64   `json:"dataset" validate:"required"`
	Country      int64   `json:"country" validate:"required"`
	Region       *int64  `json:"region"`
	ResourceType string  `json:"resource_type" validate:"required,oneof=solar wind hydro biomass other"`
	Metric       string  `json:"metric" validate:"required"`
	Value        float64 `json:"value" validate:"gte=0"`
	Unit         string  `json:"unit"`
	Year         *int    `json:"year" validate:"omitempty,gte=1900,lte=2100"`
}

func (s *ResourceMetricService) baseQuery(metrics *[]models.ResourceMetric) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(metrics).
		ColumnExpr("rm.*").
		ColumnExpr("cty.name AS country_name").
		ColumnExpr("cty.iso3 AS country_iso3").
		ColumnExpr("rgn.name AS rgn_name").
		Join("JOIN countries AS cty ON cty.id = rm.country_id").
		Join("LEFT JOIN regions AS rgn ON rgn.id = rm.region_id")
}

func (s *ResourceMetricService) List(ctx context.Context, p query.ListParams) ([]models.ResourceMetric, int, error) {
	var metrics []models.ResourceMetric
	q := ResourceMetricSpec.Apply(s.baseQuery(&metrics), p)
	count, err := p.Paginate(q).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return metrics, count, nil
}

// ListFiltered returns every row matching the filter set, for exports.
func (s *ResourceMetricService) ListFiltered(ctx context.Context, p query.ListParams) ([]models.ResourceMetric, error) {
	var metrics []models.ResourceMetric
	q := ResourceMetricSpec.Apply(s.baseQuery(&metrics), p)
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return metrics, nil
}

// Timeseries returns filtered rows capped at TimeseriesRowCap.
func (s *ResourceMetricService) Timeseries(ctx context.Context, p query.ListParams) ([]models.ResourceMetric, error) {
	var metrics []models.ResourceMetric
	q := ResourceMetricSpec.Apply(s.baseQuery(&metrics), p).Limit(TimeseriesRowCap)
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return metrics, nil
}

func (s *ResourceMetricService) Get(ctx context.Context, id int64) (*models.ResourceMetric, error) {
	var metrics []models.ResourceMetric
	err := s.baseQuery(&metrics).Where("rm.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		return nil, apperrors.NotFound("resource metric %d not found", id)
	}
	return &metrics[0], nil
}

func (s *ResourceMetricService) Create(ctx context.Context, input ResourceMetricInput) (*models.ResourceMetric, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	metric := &models.ResourceMetric{
		DatasetID:    input.Dataset,
		CountryID:    input.Country,
		RegionID:     input.Region,
		ResourceType: input.ResourceType,
		Metric:       input.Metric,
		Value:        decimal.NewFromFloat(input.Value),
		Unit:         input.Unit,
		Year:         input.Year,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.checkReferences(ctx, tx, metric); err != nil {
			return err
		}
		exists, err := tx.NewSelect().
			Model((*models.ResourceMetric)(nil)).
			Where("rm.dataset_id = ?", metric.DatasetID).
			Where("rm.country_id = ?", metric.CountryID).
			Where("rm.resource_type = ?", metric.ResourceType).
			Where("rm.metric = ?", metric.Metric).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Conflict("metric %q already recorded for this dataset, country and resource type", metric.Metric)
		}
		_, err = tx.NewInsert().Model(metric).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return metric, nil
}

func (s *ResourceMetricService) Update(ctx context.Context, id int64, input ResourceMetricInput) (*models.ResourceMetric, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	metric := new(models.ResourceMetric)
	err := s.db.NewSelect().Model(metric).Where("rm.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("resource metric %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	metric.DatasetID = input.Dataset
	metric.CountryID = input.Country
	metric.RegionID = input.Region
	metric.ResourceType = input.ResourceType
	metric.Metric = input.Metric
	metric.Value = decimal.NewFromFloat(input.Value)
	metric.Unit = input.Unit
	metric.Year = input.Year
	metric.UpdatedAt = time.Now().UTC()

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.checkReferences(ctx, tx, metric); err != nil {
			return err
		}
		exists, err := tx.NewSelect().
			Model((*models.ResourceMetric)(nil)).
			Where("rm.dataset_id = ?", metric.DatasetID).
			Where("rm.country_id = ?", metric.CountryID).
			Where("rm.resource_type = ?", metric.ResourceType).
			Where("rm.metric = ?", metric.Metric).
			Where("rm.id != ?", id).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Conflict("metric %q already recorded for this dataset, country and resource type", metric.Metric)
		}
		_, err = tx.NewUpdate().Model(metric).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return metric, nil
}

func (s *ResourceMetricService) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*models.ResourceMetric)(nil)).Where("rm.id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NotFound("resource metric %d not found", id)
	}
	return nil
}

// Upsert writes a metric by its natural key: a row matching (dataset,
// country, resource_type, metric) is updated in place, otherwise inserted.
// Performed as a single statement so concurrent importers converge to one
// row.
func (s *ResourceMetricService) Upsert(ctx context.Context, metric *models.ResourceMetric) error {
	now := time.Now().UTC()
	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = now
	}
	metric.UpdatedAt = now

	_, err := s.db.NewInsert().
		Model(metric).
		On("CONFLICT (dataset_id, country_id, resource_type, metric) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("unit = EXCLUDED.unit").
		Set("year = EXCLUDED.year").
		Set("region_id = EXCLUDED.region_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *ResourceMetricService) checkReferences(ctx context.Context, tx bun.Tx, metric *models.ResourceMetric) error {
	if err := requireCountry(ctx, tx, metric.CountryID); err != nil {
		return err
	}
	exists, err := tx.NewSelect().
		Model((*models.EnergyDataset)(nil)).
		Where("ds.id = ?", metric.DatasetID).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound("dataset %d not found", metric.DatasetID)
	}
	if metric.RegionID != nil {
		exists, err := tx.NewSelect().
			Model((*models.Region)(nil)).
			Where("rgn.id = ?", *metric.RegionID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("region %d not found", *metric.RegionID)
		}
	}
	return nil
}
