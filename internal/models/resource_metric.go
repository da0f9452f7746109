package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Resource types accepted by ResourceMetric.ResourceType.
const (
	ResourceTypeSolar   = "solar"
	ResourceTypeWind    = "wind"
	ResourceTypeHydro   = "hydro"
	ResourceTypeBiomass = "biomass"
	ResourceTypeOther   = "other"
)

// ResourceMetric is one measured figure for a country. The tuple
// (dataset, country, resource_type, metric) is unique; imports upsert on it.
type ResourceMetric struct {
	bun.BaseModel `bun:"table:resource_metrics,alias:rm"`

	ID           int64           `bun:"id,pk,autoincrement" json:"id"`
	DatasetID    int64           `bun:"dataset_id,notnull" json:"dataset"`
	CountryID    int64           `bun:"country_id,notnull" json:"country"`
	RegionID     *int64          `bun:"region_id" json:"region"`
	ResourceType string          `bun:"resource_type,notnull" json:"resource_type"`
	Metric       string          `bun:"metric,notnull" json:"metric"`
	Value        decimal.Decimal `bun:"value,notnull" json:"value"`
	Unit         string          `bun:"unit" json:"unit"`
	Year         *int            `bun:"year" json:"year"`
	CreatedAt    time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time       `bun:"updated_at,notnull" json:"updated_at"`

	Country *Country       `bun:"rel:belongs-to,join:country_id=id" json:"-"`
	Region  *Region        `bun:"rel:belongs-to,join:region_id=id" json:"-"`
	Dataset *EnergyDataset `bun:"rel:belongs-to,join:dataset_id=id" json:"-"`

	CountryName string `bun:"country_name,scanonly" json:"country_name,omitempty"`
	CountryISO3 string `bun:"country_iso3,scanonly" json:"country_iso3,omitempty"`
	RegionName  string `bun:"rgn_name,scanonly" json:"region_name,omitempty"`
}
