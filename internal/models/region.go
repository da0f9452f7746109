package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Region struct {
	bun.BaseModel `bun:"table:regions,alias:rgn"`

	ID        int64          `bun:"id,pk,autoincrement" json:"id"`
	CountryID int64          `bun:"country_id,notnull" json:"country"`
	Name      string         `bun:"name,notnull" json:"name"`
	Level     string         `bun:"level" json:"level"`
	Boundary  map[string]any `bun:"boundary,type:jsonb" json:"boundary,omitempty"`
	CreatedAt time.Time      `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time      `bun:"updated_at,notnull" json:"updated_at"`

	Country *Country `bun:"rel:belongs-to,join:country_id=id" json:"-"`

	CountryName string `bun:"country_name,scanonly" json:"country_name,omitempty"`
}
