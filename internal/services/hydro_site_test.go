package services

import (
	"context"
	"net/http"
	"testing"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHydroSiteCreate_NegativeHeadRejected(t *testing.T) {
	db := setupDB(t)
	svc := NewHydroSiteService(db)
	ctx := context.Background()

	country := seedCountry(t, db, "Kenya", "KE", "KEN")

	head := -5.0
	_, err := svc.Create(ctx, HydroSiteInput{
		Country: country.ID,
		Name:    "Seven Forks",
		HeadM:   &head,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.CodeOf(err))
	assert.Contains(t, apperrors.FieldsOf(err), "head_m")
}

func TestHydroSiteCreate_ZeroHeadAccepted(t *testing.T) {
	db := setupDB(t)
	svc := NewHydroSiteService(db)
	ctx := context.Background()

	country := seedCountry(t, db, "Kenya", "KE", "KEN")

	head := 0.0
	site, err := svc.Create(ctx, HydroSiteInput{
		Country: country.ID,
		Name:    "Run of River",
		HeadM:   &head,
	})
	require.NoError(t, err)
	assert.True(t, site.HeadM.Valid)
	assert.True(t, site.HeadM.Decimal.IsZero())
	assert.Equal(t, models.SiteStatusIdentified, site.Status)
}

func TestHydroSiteCreate_NegativeElevationAccepted(t *testing.T) {
	db := setupDB(t)
	svc := NewHydroSiteService(db)
	ctx := context.Background()

	country := seedCountry(t, db, "Israel", "IL", "ISR")

	// below-sea-level sites are real; elevation has no lower bound
	elevation := -430.0
	site, err := svc.Create(ctx, HydroSiteInput{
		Country:    country.ID,
		Name:       "Dead Sea Pumped Storage",
		ElevationM: &elevation,
	})
	require.NoError(t, err)
	require.True(t, site.ElevationM.Valid)
	assert.True(t, site.ElevationM.Decimal.Equal(decimal.NewFromFloat(-430)),
		"elevation = %s", site.ElevationM.Decimal)
}

func TestHydroSiteCreate_UnknownCountry(t *testing.T) {
	db := setupDB(t)
	svc := NewHydroSiteService(db)

	_, err := svc.Create(context.Background(), HydroSiteInput{Country: 404, Name: "Nowhere"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperrors.CodeOf(err))
}

func TestHydroSiteDelete_ClearsClimateSeriesLink(t *testing.T) {
	db := setupDB(t)
	svc := NewHydroSiteService(db)
	ctx := context.Background()

	country := seedCountry(t, db, "Kenya", "KE", "KEN")
	dataset := seedDataset(t, db, "climate normals", models.DatasetTypeClimate)
	site := seedSite(t, db, country.ID, "Seven Forks", 1000, 250)
	series := seedSeries(t, db, dataset.ID, country.ID, "precipitation", &site.ID)

	require.NoError(t, svc.Delete(ctx, site.ID))

	var kept models.ClimateSeries
	err := db.NewSelect().Model(&kept).Where("cs.id = ?", series.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Nil(t, kept.SiteID)
}

func TestRegionDelete_ClearsSiteLink(t *testing.T) {
	db := setupDB(t)
	svc := NewRegionService(db)
	ctx := context.Background()

	country := seedCountry(t, db, "Kenya", "KE", "KEN")
	region := seedRegion(t, db, country.ID, "Rift Valley")

	site := seedSite(t, db, country.ID, "Seven Forks", 1000, 250)
	_, err := db.NewUpdate().Model((*models.HydroSite)(nil)).
		Set("region_id = ?", region.ID).
		Where("id = ?", site.ID).
		Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, region.ID))

	var kept models.HydroSite
	err = db.NewSelect().Model(&kept).Where("hs.id = ?", site.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Nil(t, kept.RegionID)
}
