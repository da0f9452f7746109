package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Hydro site lifecycle statuses.
const (
	SiteStatusIdentified   = "identified"
	SiteStatusStudy        = "study"
	SiteStatusConstruction = "construction"
	SiteStatusOperational  = "operational"
)

// HydroSite is a candidate or existing hydropower location. Engineering
// figures are decimals so repeated writes do not drift.
type HydroSite struct {
	bun.BaseModel `bun:"table:hydro_sites,alias:hs"`

	ID                 int64               `bun:"id,pk,autoincrement" json:"id"`
	CountryID          int64               `bun:"country_id,notnull" json:"country"`
	RegionID           *int64              `bun:"region_id" json:"region"`
	DatasetID          *int64              `bun:"dataset_id" json:"dataset"`
	Name               string              `bun:"name,notnull" json:"name"`
	Latitude           decimal.NullDecimal `bun:"latitude" json:"latitude"`
	Longitude          decimal.NullDecimal `bun:"longitude" json:"longitude"`
	ElevationM         decimal.NullDecimal `bun:"elevation_m" json:"elevation_m"`
	HeadM              decimal.NullDecimal `bun:"head_m" json:"head_m"`
	StorageCapacityMWh decimal.NullDecimal `bun:"storage_capacity_mwh" json:"storage_capacity_mwh"`
	TurbineCapacityMW  decimal.NullDecimal `bun:"turbine_capacity_mw" json:"turbine_capacity_mw"`
	Status             string              `bun:"status,notnull,default:'identified'" json:"status"`
	Notes              string              `bun:"notes" json:"notes"`
	Properties         map[string]any      `bun:"properties,type:jsonb" json:"properties,omitempty"`
	CreatedAt          time.Time           `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt          time.Time           `bun:"updated_at,notnull" json:"updated_at"`

	Country *Country       `bun:"rel:belongs-to,join:country_id=id" json:"-"`
	Region  *Region        `bun:"rel:belongs-to,join:region_id=id" json:"-"`
	Dataset *EnergyDataset `bun:"rel:belongs-to,join:dataset_id=id" json:"-"`

	CountryName string `bun:"country_name,scanonly" json:"country_name,omitempty"`
	CountryISO3 string `bun:"country_iso3,scanonly" json:"country_iso3,omitempty"`
	RegionName  string `bun:"rgn_name,scanonly" json:"region_name,omitempty"`
}
