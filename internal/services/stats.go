package services

import (
	"context"
	"database/sql"
	"errors"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/models"
	"ecopoweratlas/internal/query"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type ResourceTypeTotal struct {
	ResourceType string          `json:"resource_type"`
	TotalValue   decimal.Decimal `json:"total_value"`
	MetricCount  int64           `json:"metric_count"`
}

type CountrySiteCount struct {
	Name      string `json:"name"`
	ISO3      string `json:"iso3"`
	SiteCount int64  `json:"site_count"`
}

type GlobalStats struct {
	DatasetCount int                 `json:"dataset_count"`
	ByResource   []ResourceTypeTotal `json:"by_resource_type"`
	TopCountries []CountrySiteCount  `json:"top_countries_by_sites"`
}

type CountryStats struct {
	Country         string              `json:"country"`
	ISO3            string              `json:"iso3"`
	SiteCount       int64               `json:"site_count"`
	TotalStorageMWh decimal.Decimal     `json:"total_storage_mwh"`
	TotalTurbineMW  decimal.Decimal     `json:"total_turbine_mw"`
	ByResource      []ResourceTypeTotal `json:"by_resource_type"`
}

type HydroSummary struct {
	TotalSites      int64              `json:"total_sites"`
	TotalStorageMWh decimal.Decimal    `json:"total_storage_mwh"`
	TotalCapacityMW decimal.Decimal    `json:"total_capacity_mw"`
	TopCountries    []CountrySiteCount `json:"top_countries"`
}

type StatsService struct {
	db *bun.DB
}

func NewStatsService(db *bun.DB) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) Global(ctx context.Context) (*GlobalStats, error) {
	stats := &GlobalStats{
		ByResource:   []ResourceTypeTotal{},
		TopCountries: []CountrySiteCount{},
	}

	datasetCount, err := s.db.NewSelect().Model((*models.EnergyDataset)(nil)).Count(ctx)
	if err != nil {
		return nil, err
	}
	stats.DatasetCount = datasetCount

	err = s.db.NewSelect().
		Model((*models.ResourceMetric)(nil)).
		ColumnExpr("rm.resource_type").
		ColumnExpr("COALESCE(SUM(rm.value), 0) AS total_value").
		ColumnExpr("COUNT(*) AS metric_count").
		GroupExpr("rm.resource_type").
		OrderExpr("rm.resource_type ASC").
		Scan(ctx, &stats.ByResource)
	if err != nil {
		return nil, err
	}

	err = s.db.NewSelect().
		Model((*models.Country)(nil)).
		ColumnExpr("cty.name").
		ColumnExpr("cty.iso3").
		ColumnExpr("COUNT(hs.id) AS site_count").
		Join("JOIN hydro_sites AS hs ON hs.country_id = cty.id").
		GroupExpr("cty.id, cty.name, cty.iso3").
		OrderExpr("site_count DESC").
		Limit(5).
		Scan(ctx, &stats.TopCountries)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *StatsService) ByCountry(ctx context.Context, iso3 string) (*CountryStats, error) {
	if iso3 == "" {
		return nil, apperrors.BadRequest("iso3 query parameter is required")
	}

	country := new(models.Country)
	err := s.db.NewSelect().
		Model(country).
		Where("UPPER(cty.iso3) = UPPER(?)", iso3).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("country %s not found", iso3)
	}
	if err != nil {
		return nil, err
	}

	stats := &CountryStats{
		Country:    country.Name,
		ISO3:       country.ISO3,
		ByResource: []ResourceTypeTotal{},
	}

	err = s.db.NewSelect().
		Model((*models.HydroSite)(nil)).
		ColumnExpr("COUNT(*) AS site_count").
		ColumnExpr("COALESCE(SUM(hs.storage_capacity_mwh), 0) AS total_storage_mwh").
		ColumnExpr("COALESCE(SUM(hs.turbine_capacity_mw), 0) AS total_turbine_mw").
		Where("hs.country_id = ?", country.ID).
		Scan(ctx, &stats.SiteCount, &stats.TotalStorageMWh, &stats.TotalTurbineMW)
	if err != nil {
		return nil, err
	}

	err = s.db.NewSelect().
		Model((*models.ResourceMetric)(nil)).
		ColumnExpr("rm.resource_type").
		ColumnExpr("COALESCE(SUM(rm.value), 0) AS total_value").
		ColumnExpr("COUNT(*) AS metric_count").
		Where("rm.country_id = ?", country.ID).
		GroupExpr("rm.resource_type").
		OrderExpr("rm.resource_type ASC").
		Scan(ctx, &stats.ByResource)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *StatsService) HydroSummary(ctx context.Context, p query.ListParams) (*HydroSummary, error) {
	summary := &HydroSummary{TopCountries: []CountrySiteCount{}}

	base := s.db.NewSelect().
		Model((*models.HydroSite)(nil)).
		Join("JOIN countries AS cty ON cty.id = hs.country_id").
		Join("LEFT JOIN regions AS rgn ON rgn.id = hs.region_id")
	base = HydroSiteSpec.Filter(base, p)

	err := base.
		ColumnExpr("COUNT(*) AS total_sites").
		ColumnExpr("COALESCE(SUM(hs.storage_capacity_mwh), 0) AS total_storage_mwh").
		ColumnExpr("COALESCE(SUM(hs.turbine_capacity_mw), 0) AS total_capacity_mw").
		Scan(ctx, &summary.TotalSites, &summary.TotalStorageMWh, &summary.TotalCapacityMW)
	if err != nil {
		return nil, err
	}

	top := s.db.NewSelect().
		Model((*models.HydroSite)(nil)).
		Join("JOIN countries AS cty ON cty.id = hs.country_id").
		Join("LEFT JOIN regions AS rgn ON rgn.id = hs.region_id")
	top = HydroSiteSpec.Filter(top, p)
	err = top.
		ColumnExpr("cty.name").
		ColumnExpr("cty.iso3").
		ColumnExpr("COUNT(hs.id) AS site_count").
		GroupExpr("cty.id, cty.name, cty.iso3").
		OrderExpr("site_count DESC").
		Limit(5).
		Scan(ctx, &summary.TopCountries)
	if err != nil {
		return nil, err
	}

	return summary, nil
}
