package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Country struct {
	bun.BaseModel `bun:"table:countries,alias:cty"`

	ID         int64          `bun:"id,pk,autoincrement" json:"id"`
	Name       string         `bun:"name,notnull,unique" json:"name"`
	ISO2       string         `bun:"iso2,notnull,unique" json:"iso2"`
	ISO3       string         `bun:"iso3,notnull,unique" json:"iso3"`
	Population *int64         `bun:"population" json:"population"`
	Boundary   map[string]any `bun:"boundary,type:jsonb" json:"boundary,omitempty"`
	CreatedAt  time.Time      `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt  time.Time      `bun:"updated_at,notnull" json:"updated_at"`

	// Annotated on list/detail reads, not stored.
	RegionCount int `bun:"region_count,scanonly" json:"region_count"`
	SiteCount   int `bun:"site_count,scanonly" json:"site_count"`

	Regions    []*Region    `bun:"rel:has-many,join:id=country_id" json:"-"`
	HydroSites []*HydroSite `bun:"rel:has-many,join:id=country_id" json:"-"`
}
