package main

import (
	"context"
	"fmt"
	"os"

	"ecopoweratlas/internal/config"
	"ecopoweratlas/internal/database"
	"ecopoweratlas/internal/importer"
	"ecopoweratlas/internal/logger"
	"ecopoweratlas/internal/services"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:          "atlasctl",
		Short:        "Data loading tools for the energy atlas",
		SilenceUsage: true,
	}
	root.AddCommand(newImportGeoJSONCmd())
	root.AddCommand(newImportResourcesCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDB(ctx context.Context) (*bun.DB, error) {
	cfg := config.Load()
	db, err := database.New(cfg.DatabaseURL, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.CreateSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newImportGeoJSONCmd() *cobra.Command {
	var opts importer.GeoJSONOptions

	cmd := &cobra.Command{
		Use:   "import-geojson <path>",
		Short: "Load country or region boundaries from a GeoJSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logr := logger.New(config.Load())
			defer logr.Sync()

			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			im := importer.NewGeoJSONImporter(db, logr.Logger)
			result, err := im.Run(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			logr.Info("geojson import finished",
				zap.Int("imported", result.Imported),
				zap.Int("skipped", result.Skipped()))
			fmt.Fprintf(cmd.OutOrStdout(), "%d boundaries imported, %d skipped\n",
				result.Imported, result.Skipped())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", importer.TargetCountry, "country or region")
	cmd.Flags().StringVar(&opts.CountryISO3, "country-iso3", "", "Country ISO3 for region features without one")
	cmd.Flags().StringVar(&opts.NameField, "name-field", "name", "Feature property holding the name")
	cmd.Flags().StringVar(&opts.ISO3Field, "iso3-field", "iso3", "Feature property holding the ISO3 code")
	cmd.Flags().StringVar(&opts.Level, "level", "", "Administrative level to record on regions")

	return cmd
}

func newImportResourcesCmd() *cobra.Command {
	var opts importer.ResourceOptions

	cmd := &cobra.Command{
		Use:   "import-resources <path>",
		Short: "Load per-country resource metrics from a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logr := logger.New(config.Load())
			defer logr.Sync()

			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			datasets := services.NewDatasetService(db)
			metrics := services.NewResourceMetricService(db)
			im := importer.NewResourceImporter(db, datasets, metrics, logr.Logger)
			result, err := im.Run(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			logr.Info("resource import finished",
				zap.Int("imported", result.Imported),
				zap.Int("skipped", result.Skipped()))
			fmt.Fprintf(cmd.OutOrStdout(), "%d metrics imported to %q, %d rows skipped\n",
				result.Imported, opts.DatasetName, result.Skipped())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.DatasetName, "dataset-name", "Imported resources", "Dataset to create or reuse")
	cmd.Flags().StringVar(&opts.DatasetSource, "dataset-source", "", "Source attribution for a new dataset")
	cmd.Flags().StringVar(&opts.ResourceType, "resource-type", "solar", "Resource type recorded on every metric")
	cmd.Flags().StringVar(&opts.DefaultMetric, "default-metric", "potential_kwh", "Metric name for rows without one")

	return cmd
}
