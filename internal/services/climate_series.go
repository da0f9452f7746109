package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/models"
	"ecopoweratlas/internal/query"

	"github.com/uptrace/bun"
)

var ClimateSeriesSpec = query.Spec{
	Filterable: map[string]query.Field{
		"variable":     {Column: "cs.variable"},
		"country_iso3": {Column: "cty.iso3", Fold: true},
		"site":         {Column: "cs.site_id"},
	},
	Searchable:   []string{"cs.variable"},
	Sortable:     map[string]string{"created_at": "cs.created_at"},
	DefaultOrder: []string{"cs.variable ASC", "cty.name ASC"},
}

type ClimateSeriesService struct {
	db *bun.DB
}

func NewClimateSeriesService(db *bun.DB) *ClimateSeriesService {
	return &ClimateSeriesService{db: db}
}

type ClimateSeriesInput struct {
	Dataset    int64                `json:"dataset" validate:"required"`
	Country    int64                `json:"country" validate:"required"`
	Region     *int64               `json:"region"`
	Site       *int64               `json:"site"`
	Variable   string               `json:"variable" validate:"required"`
	Unit       string               `json:"unit"`
	Statistics map[string]any       `json:"statistics"`
	Series     []models.SeriesPoint `json:"series"`
}

func (s *ClimateSeriesService) baseQuery(series *[]models.ClimateSeries) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(series).
		ColumnExpr("cs.*").
		ColumnExpr("cty.name AS country_name").
		Join("JOIN countries AS cty ON cty.id = cs.country_id")
}

func (s *ClimateSeriesService) List(ctx context.Context, p query.ListParams) ([]models.ClimateSeries, int, error) {
	var series []models.ClimateSeries
	q := ClimateSeriesSpec.Apply(s.baseQuery(&series), p)
	count, err := p.Paginate(q).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return series, count, nil
}

// Timeline returns filtered rows capped at TimeseriesRowCap.
func (s *ClimateSeriesService) Timeline(ctx context.Context, p query.ListParams) ([]models.ClimateSeries, error) {
	var series []models.ClimateSeries
	q := ClimateSeriesSpec.Apply(s.baseQuery(&series), p).Limit(TimeseriesRowCap)
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return series, nil
}

func (s *ClimateSeriesService) Get(ctx context.Context, id int64) (*models.ClimateSeries, error) {
	var series []models.ClimateSeries
	err := s.baseQuery(&series).Where("cs.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, apperrors.NotFound("climate series %d not found", id)
	}
	return &series[0], nil
}

func (s *ClimateSeriesService) Create(ctx context.Context, input ClimateSeriesInput) (*models.ClimateSeries, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	series := &models.ClimateSeries{
		DatasetID:  input.Dataset,
		CountryID:  input.Country,
		RegionID:   input.Region,
		SiteID:     input.Site,
		Variable:   input.Variable,
		Unit:       input.Unit,
		Statistics: input.Statistics,
		Series:     input.Series,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.checkReferences(ctx, tx, series); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(series).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

func (s *ClimateSeriesService) Update(ctx context.Context, id int64, input ClimateSeriesInput) (*models.ClimateSeries, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	series := new(models.ClimateSeries)
	err := s.db.NewSelect().Model(series).Where("cs.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("climate series %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	series.DatasetID = input.Dataset
	series.CountryID = input.Country
	series.RegionID = input.Region
	series.SiteID = input.Site
	series.Variable = input.Variable
	series.Unit = input.Unit
	series.Statistics = input.Statistics
	series.Series = input.Series
	series.UpdatedAt = time.Now().UTC()

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.checkReferences(ctx, tx, series); err != nil {
			return err
		}
		_, err := tx.NewUpdate().Model(series).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

func (s *ClimateSeriesService) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*models.ClimateSeries)(nil)).Where("cs.id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NotFound("climate series %d not found", id)
	}
	return nil
}

func (s *ClimateSeriesService) checkReferences(ctx context.Context, tx bun.Tx, series *models.ClimateSeries) error {
	if err := requireCountry(ctx, tx, series.CountryID); err != nil {
		return err
	}
	exists, err := tx.NewSelect().
		Model((*models.EnergyDataset)(nil)).
		Where("ds.id = ?", series.DatasetID).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound("dataset %d not found", series.DatasetID)
	}
	if series.RegionID != nil {
		exists, err := tx.NewSelect().
			Model((*models.Region)(nil)).
			Where("rgn.id = ?", *series.RegionID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("region %d not found", *series.RegionID)
		}
	}
	if series.SiteID != nil {
		exists, err := tx.NewSelect().
			Model((*models.HydroSite)(nil)).
			Where("hs.id = ?", *series.SiteID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("hydro site %d not found", *series.SiteID)
		}
	}
	return nil
}
