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

var RegionSpec = query.Spec{
	Filterable: map[string]query.Field{
		"country_iso3": {Column: "cty.iso3", Fold: true},
		"level":        {Column: "rgn.level"},
	},
	Searchable:   []string{"rgn.name"},
	Sortable:     map[string]string{"name": "rgn.name", "country_name": "cty.name"},
	DefaultOrder: []string{"cty.name ASC", "rgn.name ASC"},
}

type RegionService struct {
	db *bun.DB
}

func NewRegionService(db *bun.DB) *RegionService {
	return &RegionService{db: db}
}

type RegionInput struct {
	Country  int64          `json:"country" validate:"required"`
	Name     string         `json:"name" validate:"required"`
	Level    string         `json:"level"`
	Boundary map[string]any `json:"boundary"`
}

func (s *RegionService) List(ctx context.Context, p query.ListParams) ([]models.Region, int, error) {
	var regions []models.Region
	q := s.db.NewSelect().
		Model(&regions).
		ColumnExpr("rgn.*").
		ColumnExpr("cty.name AS country_name").
		Join("JOIN countries AS cty ON cty.id = rgn.country_id")
	q = RegionSpec.Apply(q, p)
	count, err := p.Paginate(q).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return regions, count, nil
}

func (s *RegionService) Get(ctx context.Context, id int64) (*models.Region, error) {
	region := new(models.Region)
	err := s.db.NewSelect().
		Model(region).
		ColumnExpr("rgn.*").
		ColumnExpr("cty.name AS country_name").
		Join("JOIN countries AS cty ON cty.id = rgn.country_id").
		Where("rgn.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("region %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return region, nil
}

func (s *RegionService) Create(ctx context.Context, input RegionInput) (*models.Region, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	region := &models.Region{
		CountryID: input.Country,
		Name:      input.Name,
		Level:     input.Level,
		Boundary:  input.Boundary,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := requireCountry(ctx, tx, input.Country); err != nil {
			return err
		}
		if err := s.checkUnique(ctx, tx, region, 0); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(region).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return region, nil
}

func (s *RegionService) Update(ctx context.Context, id int64, input RegionInput) (*models.Region, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	region, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	region.CountryID = input.Country
	region.Name = input.Name
	region.Level = input.Level
	region.Boundary = input.Boundary
	region.UpdatedAt = time.Now().UTC()

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := requireCountry(ctx, tx, input.Country); err != nil {
			return err
		}
		if err := s.checkUnique(ctx, tx, region, id); err != nil {
			return err
		}
		_, err := tx.NewUpdate().Model(region).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return region, nil
}

// Delete removes a region and clears references from sites, metrics and
// climate series.
func (s *RegionService) Delete(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Region)(nil)).
			Where("rgn.id = ?", id).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("region %d not found", id)
		}

		if _, err := tx.NewUpdate().Model((*models.HydroSite)(nil)).Set("region_id = NULL").Where("region_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model((*models.ResourceMetric)(nil)).Set("region_id = NULL").Where("region_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model((*models.ClimateSeries)(nil)).Set("region_id = NULL").Where("region_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewDelete().Model((*models.Region)(nil)).Where("rgn.id = ?", id).Exec(ctx)
		return err
	})
}

func (s *RegionService) checkUnique(ctx context.Context, tx bun.Tx, region *models.Region, selfID int64) error {
	q := tx.NewSelect().
		Model((*models.Region)(nil)).
		Where("rgn.country_id = ?", region.CountryID).
		Where("rgn.name = ?", region.Name)
	if selfID != 0 {
		q = q.Where("rgn.id != ?", selfID)
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.Conflict("region %q already exists in country %d", region.Name, region.CountryID)
	}
	return nil
}

func requireCountry(ctx context.Context, tx bun.Tx, id int64) error {
	exists, err := tx.NewSelect().
		Model((*models.Country)(nil)).
		Where("cty.id = ?", id).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound("country %d not found", id)
	}
	return nil
}
