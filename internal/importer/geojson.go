package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/models"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ImportResult summarizes one import run.
type ImportResult struct {
	Imported        int
	SkippedNoKey    int
	SkippedBadValue int
}

func (r ImportResult) Skipped() int {
	return r.SkippedNoKey + r.SkippedBadValue
}

const (
	TargetCountry = "country"
	TargetRegion  = "region"
)

// GeoJSONOptions configures a boundary import run.
type GeoJSONOptions struct {
	Target      string // country or region
	CountryISO3 string // fallback country code for region features
	NameField   string
	ISO3Field   string
	Level       string
}

type geoFeature struct {
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type featureCollection struct {
	Features []geoFeature `json:"features"`
}

type GeoJSONImporter struct {
	db   *bun.DB
	logr *zap.Logger
}

func NewGeoJSONImporter(db *bun.DB, logr *zap.Logger) *GeoJSONImporter {
	return &GeoJSONImporter{db: db, logr: logr}
}

// Run loads a GeoJSON feature collection and upserts countries or regions
// from it.
func (im *GeoJSONImporter) Run(ctx context.Context, path string, opts GeoJSONOptions) (ImportResult, error) {
	var result ImportResult

	if opts.NameField == "" {
		opts.NameField = "name"
	}
	if opts.ISO3Field == "" {
		opts.ISO3Field = "iso3"
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return result, apperrors.SourceUnavailable("cannot read %s: %v", path, err)
	}

	var collection featureCollection
	if err := json.Unmarshal(raw, &collection); err != nil {
		return result, apperrors.SourceUnavailable("invalid GeoJSON in %s: %v", path, err)
	}
	if len(collection.Features) == 0 {
		return result, apperrors.SourceUnavailable("no features found in %s", path)
	}

	if opts.Target == TargetRegion {
		return im.importRegions(ctx, collection.Features, opts)
	}
	return im.importCountries(ctx, collection.Features, opts)
}

func (im *GeoJSONImporter) importCountries(ctx context.Context, features []geoFeature, opts GeoJSONOptions) (ImportResult, error) {
	var result ImportResult
	for _, feature := range features {
		props := feature.Properties
		iso3 := strings.ToUpper(strings.TrimSpace(propString(props, opts.ISO3Field, "iso_a3", "ISO_A3")))
		if iso3 == "" {
			result.SkippedNoKey++
			continue
		}
		name := propString(props, opts.NameField, "name", "NAME")
		if name == "" {
			name = iso3
		}
		iso2 := propString(props, "iso_a2", "ISO_A2")
		if iso2 == "" {
			iso2 = prefix2(iso3)
		}

		now := time.Now().UTC()
		country := &models.Country{
			Name:      name,
			ISO2:      strings.ToUpper(iso2),
			ISO3:      iso3,
			Boundary:  decodeGeometry(feature.Geometry),
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err := im.db.NewInsert().
			Model(country).
			On("CONFLICT (iso3) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("iso2 = EXCLUDED.iso2").
			Set("boundary = EXCLUDED.boundary").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return result, err
		}
		result.Imported++
	}
	return result, nil
}

func (im *GeoJSONImporter) importRegions(ctx context.Context, features []geoFeature, opts GeoJSONOptions) (ImportResult, error) {
	var result ImportResult
	for _, feature := range features {
		props := feature.Properties
		countryISO3 := strings.ToUpper(strings.TrimSpace(propString(props, "country_iso3")))
		if countryISO3 == "" {
			countryISO3 = strings.ToUpper(strings.TrimSpace(opts.CountryISO3))
		}
		if countryISO3 == "" {
			result.SkippedNoKey++
			continue
		}

		country := new(models.Country)
		err := im.db.NewSelect().
			Model(country).
			Where("UPPER(cty.iso3) = ?", countryISO3).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			im.logr.Warn("country not found, region skipped", zap.String("iso3", countryISO3))
			result.SkippedNoKey++
			continue
		}
		if err != nil {
			return result, err
		}

		name := propString(props, opts.NameField, "name", "NAME")
		if name == "" {
			result.SkippedNoKey++
			continue
		}

		level := opts.Level
		if level == "" {
			level = propString(props, "level")
		}

		now := time.Now().UTC()
		region := &models.Region{
			CountryID: country.ID,
			Name:      name,
			Level:     level,
			Boundary:  decodeGeometry(feature.Geometry),
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = im.db.NewInsert().
			Model(region).
			On("CONFLICT (country_id, name) DO UPDATE").
			Set("level = EXCLUDED.level").
			Set("boundary = EXCLUDED.boundary").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return result, err
		}
		result.Imported++
	}
	return result, nil
}

func prefix2(code string) string {
	if len(code) < 2 {
		return code
	}
	return code[:2]
}

func propString(props map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := props[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func decodeGeometry(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var geometry map[string]any
	if err := json.Unmarshal(raw, &geometry); err != nil {
		return nil
	}
	return geometry
}
