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

var HydroSiteSpec = query.Spec{
	Filterable: map[string]query.Field{
		"country_iso3": {Column: "cty.iso3", Fold: true},
		"region_name":  {Column: "rgn.name"},
		"status":       {Column: "hs.status"},
		"dataset":      {Column: "hs.dataset_id"},
	},
	Searchable: []string{"hs.name", "hs.notes"},
	Sortable: map[string]string{
		"name":                 "hs.name",
		"head_m":               "hs.head_m",
		"storage_capacity_mwh": "hs.storage_capacity_mwh",
		"turbine_capacity_mw":  "hs.turbine_capacity_mw",
	},
	DefaultOrder: []string{"cty.name ASC", "hs.name ASC"},
}

type HydroSiteService struct {
	db *bun.DB
}

func NewHydroSiteService(db *bun.DB) *HydroSiteService {
	return &HydroSiteService{db: db}
}

type HydroSiteInput struct {
	Country            int64          `json:"country" validate:"required"`
	Region             *int64         `json:"region"`
	Dataset            *int64         `json:"dataset"`
	Name               string         `json:"name" validate:"required"`
	Latitude           *float64       `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude          *float64       `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	ElevationM         *float64       `json:"elevation_m"`
	HeadM              *float64       `json:"head_m" validate:"omitempty,gte=0"`
	StorageCapacityMWh *float64       `json:"storage_capacity_mwh" validate:"omitempty,gte=0"`
	TurbineCapacityMW  *float64       `json:"turbine_capacity_mw" validate:"omitempty,gte=0"`
	Status             string         `json:"status" validate:"omitempty,oneof=identified study construction operational"`
	Notes              string         `json:"notes"`
	Properties         map[string]any `json:"properties"`
}

func (s *HydroSiteService) baseQuery(sites *[]models.HydroSite) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(sites).
		ColumnExpr("hs.*").
		ColumnExpr("cty.name AS country_name").
		ColumnExpr("cty.iso3 AS country_iso3").
		ColumnExpr("rgn.name AS rgn_name").
		Join("JOIN countries AS cty ON cty.id = hs.country_id").
		Join("LEFT JOIN regions AS rgn ON rgn.id = hs.region_id")
}

func (s *HydroSiteService) List(ctx context.Context, p query.ListParams) ([]models.HydroSite, int, error) {
	var sites []models.HydroSite
	q := HydroSiteSpec.Apply(s.baseQuery(&sites), p)
	count, err := p.Paginate(q).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return sites, count, nil
}

// ListFiltered returns every row matching the filter set, for exports.
func (s *HydroSiteService) ListFiltered(ctx context.Context, p query.ListParams) ([]models.HydroSite, error) {
	var sites []models.HydroSite
	q := HydroSiteSpec.Apply(s.baseQuery(&sites), p)
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return sites, nil
}

func (s *HydroSiteService) Get(ctx context.Context, id int64) (*models.HydroSite, error) {
	var sites []models.HydroSite
	err := s.baseQuery(&sites).Where("hs.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return nil, apperrors.NotFound("hydro site %d not found", id)
	}
	return &sites[0], nil
}

func (s *HydroSiteService) Create(ctx context.Context, input HydroSiteInput) (*models.HydroSite, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = models.SiteStatusIdentified
	}

	now := time.Now().UTC()
	site := &models.HydroSite{
		CountryID:          input.Country,
		RegionID:           input.Region,
		DatasetID:          input.Dataset,
		Name:               input.Name,
		Latitude:           toNullDecimal(input.Latitude),
		Longitude:          toNullDecimal(input.Longitude),
		ElevationM:         toNullDecimal(input.ElevationM),
		HeadM:              toNullDecimal(input.HeadM),
		StorageCapacityMWh: toNullDecimal(input.StorageCapacityMWh),
		TurbineCapacityMW:  toNullDecimal(input.TurbineCapacityMW),
		Status:             input.Status,
		Notes:              input.Notes,
		Properties:         input.Properties,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.checkReferences(ctx, tx, site); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(site).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return site, nil
}

func (s *HydroSiteService) Update(ctx context.Context, id int64, input HydroSiteInput) (*models.HydroSite, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	site := new(models.HydroSite)
	err := s.db.NewSelect().Model(site).Where("hs.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("hydro site %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	site.CountryID = input.Country
	site.RegionID = input.Region
	site.DatasetID = input.Dataset
	site.Name = input.Name
	site.Latitude = toNullDecimal(input.Latitude)
	site.Longitude = toNullDecimal(input.Longitude)
	site.ElevationM = toNullDecimal(input.ElevationM)
	site.HeadM = toNullDecimal(input.HeadM)
	site.StorageCapacityMWh = toNullDecimal(input.StorageCapacityMWh)
	site.TurbineCapacityMW = toNullDecimal(input.TurbineCapacityMW)
	if input.Status != "" {
		site.Status = input.Status
	}
	site.Notes = input.Notes
	site.Properties = input.Properties
	site.UpdatedAt = time.Now().UTC()

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.checkReferences(ctx, tx, site); err != nil {
			return err
		}
		_, err := tx.NewUpdate().Model(site).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return site, nil
}

// Delete removes a site; climate series referencing it keep their rows with
// the site link cleared.
func (s *HydroSiteService) Delete(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.HydroSite)(nil)).
			Where("hs.id = ?", id).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("hydro site %d not found", id)
		}

		if _, err := tx.NewUpdate().Model((*models.ClimateSeries)(nil)).Set("site_id = NULL").Where("site_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewDelete().Model((*models.HydroSite)(nil)).Where("hs.id = ?", id).Exec(ctx)
		return err
	})
}

func (s *HydroSiteService) checkReferences(ctx context.Context, tx bun.Tx, site *models.HydroSite) error {
	if err := requireCountry(ctx, tx, site.CountryID); err != nil {
		return err
	}
	if site.RegionID != nil {
		exists, err := tx.NewSelect().
			Model((*models.Region)(nil)).
			Where("rgn.id = ?", *site.RegionID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("region %d not found", *site.RegionID)
		}
	}
	if site.DatasetID != nil {
		exists, err := tx.NewSelect().
			Model((*models.EnergyDataset)(nil)).
			Where("ds.id = ?", *site.DatasetID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("dataset %d not found", *site.DatasetID)
		}
	}
	return nil
}

func toNullDecimal(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*f), Valid: true}
}
