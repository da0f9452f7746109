package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Dataset types accepted by EnergyDataset.DatasetType.
const (
	DatasetTypeResource = "resource"
	DatasetTypeClimate  = "climate"
	DatasetTypePHES     = "phes"
)

// EnergyDataset is a provenance record for imported data.
type EnergyDataset struct {
	bun.BaseModel `bun:"table:energy_datasets,alias:ds"`

	ID           int64          `bun:"id,pk,autoincrement" json:"id"`
	Name         string         `bun:"name,notnull" json:"name"`
	DatasetType  string         `bun:"dataset_type,notnull" json:"dataset_type"`
	Source       string         `bun:"source" json:"source"`
	Description  string         `bun:"description" json:"description"`
	FileName     string         `bun:"file_name" json:"file_name"`
	FileChecksum string         `bun:"file_checksum" json:"file_checksum"`
	Metadata     map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time      `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time      `bun:"updated_at,notnull" json:"updated_at"`
}
