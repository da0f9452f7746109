package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/models"
	"ecopoweratlas/internal/query"

	"github.com/uptrace/bun"
)

// CountrySpec is the listing allow-list for countries.
var CountrySpec = query.Spec{
	Filterable: map[string]query.Field{
		"iso2": {Column: "cty.iso2", Fold: true},
		"iso3": {Column: "cty.iso3", Fold: true},
	},
	Searchable:   []string{"cty.name"},
	Sortable:     map[string]string{"name": "cty.name", "population": "cty.population", "created_at": "cty.created_at"},
	DefaultOrder: []string{"cty.name ASC"},
}

type CountryService struct {
	db *bun.DB
}

func NewCountryService(db *bun.DB) *CountryService {
	return &CountryService{db: db}
}

type CountryInput struct {
	Name       string         `json:"name" validate:"required"`
	ISO2       string         `json:"iso2" validate:"required,len=2"`
	ISO3       string         `json:"iso3" validate:"required,len=3"`
	Population *int64         `json:"population" validate:"omitempty,gte=0"`
	Boundary   map[string]any `json:"boundary"`
}

func (s *CountryService) List(ctx context.Context, p query.ListParams) ([]models.Country, int, error) {
	var countries []models.Country
	q := s.db.NewSelect().
		Model(&countries).
		ColumnExpr("cty.*").
		ColumnExpr("(SELECT COUNT(*) FROM regions WHERE country_id = cty.id) AS region_count").
		ColumnExpr("(SELECT COUNT(*) FROM hydro_sites WHERE country_id = cty.id) AS site_count")
	q = CountrySpec.Apply(q, p)
	count, err := p.Paginate(q).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return countries, count, nil
}

func (s *CountryService) Get(ctx context.Context, id int64) (*models.Country, error) {
	country := new(models.Country)
	err := s.db.NewSelect().
		Model(country).
		ColumnExpr("cty.*").
		ColumnExpr("(SELECT COUNT(*) FROM regions WHERE country_id = cty.id) AS region_count").
		ColumnExpr("(SELECT COUNT(*) FROM hydro_sites WHERE country_id = cty.id) AS site_count").
		Where("cty.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("country %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return country, nil
}

// GetByISO3 resolves a country by its 3-letter code, case-insensitively.
func (s *CountryService) GetByISO3(ctx context.Context, iso3 string) (*models.Country, error) {
	country := new(models.Country)
	err := s.db.NewSelect().
		Model(country).
		Where("UPPER(cty.iso3) = ?", strings.ToUpper(iso3)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("country %s not found", iso3)
	}
	if err != nil {
		return nil, err
	}
	return country, nil
}

func (s *CountryService) Create(ctx context.Context, input CountryInput) (*models.Country, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	country := &models.Country{
		Name:       input.Name,
		ISO2:       strings.ToUpper(input.ISO2),
		ISO3:       strings.ToUpper(input.ISO3),
		Population: input.Population,
		Boundary:   input.Boundary,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.checkUnique(ctx, tx, country, 0); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(country).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return country, nil
}

func (s *CountryService) Update(ctx context.Context, id int64, input CountryInput) (*models.Country, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	country, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	country.Name = input.Name
	country.ISO2 = strings.ToUpper(input.ISO2)
	country.ISO3 = strings.ToUpper(input.ISO3)
	country.Population = input.Population
	country.Boundary = input.Boundary
	country.UpdatedAt = time.Now().UTC()

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.checkUnique(ctx, tx, country, id); err != nil {
			return err
		}
		_, err := tx.NewUpdate().Model(country).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return country, nil
}

// Delete removes a country. Hydro sites protect the country; regions,
// metrics and climate series cascade.
func (s *CountryService) Delete(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
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

		sites, err := tx.NewSelect().
			Model((*models.HydroSite)(nil)).
			Where("hs.country_id = ?", id).
			Count(ctx)
		if err != nil {
			return err
		}
		if sites > 0 {
			return apperrors.Conflict("country %d is referenced by %d hydro sites", id, sites)
		}

		if _, err := tx.NewDelete().Model((*models.ClimateSeries)(nil)).Where("cs.country_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.ResourceMetric)(nil)).Where("rm.country_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.Region)(nil)).Where("rgn.country_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewDelete().Model((*models.Country)(nil)).Where("cty.id = ?", id).Exec(ctx)
		return err
	})
}

func (s *CountryService) checkUnique(ctx context.Context, tx bun.Tx, country *models.Country, selfID int64) error {
	checks := []struct {
		column string
		value  string
	}{
		{"name", country.Name},
		{"iso2", country.ISO2},
		{"iso3", country.ISO3},
	}
	for _, c := range checks {
		q := tx.NewSelect().
			Model((*models.Country)(nil)).
			Where("UPPER(cty."+c.column+") = UPPER(?)", c.value)
		if selfID != 0 {
			q = q.Where("cty.id != ?", selfID)
		}
		exists, err := q.Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Conflict("country with %s %q already exists", c.column, c.value)
		}
	}
	return nil
}
