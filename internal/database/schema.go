package database

import (
	"context"
	"fmt"

	"ecopoweratlas/internal/models"

	"github.com/uptrace/bun"
)

// CreateSchema creates the catalog tables and the unique indexes that back
// the write-time constraints. Referential actions (cascade, protect,
// set-null) are enforced by the service layer inside transactions, so the
// tables themselves carry no ON DELETE clauses and behave identically on
// Postgres and sqlite.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	tables := []any{
		(*models.Country)(nil),
		(*models.Region)(nil),
		(*models.EnergyDataset)(nil),
		(*models.HydroSite)(nil),
		(*models.ResourceMetric)(nil),
		(*models.ClimateSeries)(nil),
	}
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}

	indexes := []struct {
		name    string
		table   string
		columns []string
	}{
		{"idx_regions_country_name", "regions", []string{"country_id", "name"}},
		{"idx_metrics_natural_key", "resource_metrics", []string{"dataset_id", "country_id", "resource_type", "metric"}},
	}
	for _, idx := range indexes {
		q := db.NewCreateIndex().
			Unique().
			IfNotExists().
			Index(idx.name).
			Table(idx.table)
		for _, col := range idx.columns {
			q = q.Column(col)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	return nil
}
