package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SeriesPoint is one observation in a climate time series.
type SeriesPoint struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// ClimateSeries holds a precomputed statistics summary plus the ordered
// series payload for one climate variable.
type ClimateSeries struct {
	bun.BaseModel `bun:"table:climate_series,alias:cs"`

	ID         int64          `bun:"id,pk,autoincrement" json:"id"`
	DatasetID  int64          `bun:"dataset_id,notnull" json:"dataset"`
	CountryID  int64          `bun:"country_id,notnull" json:"country"`
	RegionID   *int64         `bun:"region_id" json:"region"`
	SiteID     *int64         `bun:"site_id" json:"site"`
	Variable   string         `bun:"variable,notnull" json:"variable"`
	Unit       string         `bun:"unit" json:"unit"`
	Statistics map[string]any `bun:"statistics,type:jsonb" json:"statistics,omitempty"`
	Series     []SeriesPoint  `bun:"series,type:jsonb" json:"series"`
	CreatedAt  time.Time      `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt  time.Time      `bun:"updated_at,notnull" json:"updated_at"`

	Country *Country       `bun:"rel:belongs-to,join:country_id=id" json:"-"`
	Region  *Region        `bun:"rel:belongs-to,join:region_id=id" json:"-"`
	Site    *HydroSite     `bun:"rel:belongs-to,join:site_id=id" json:"-"`
	Dataset *EnergyDataset `bun:"rel:belongs-to,join:dataset_id=id" json:"-"`

	CountryName string `bun:"country_name,scanonly" json:"country_name,omitempty"`
}
