package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/models"
	"ecopoweratlas/internal/query"

	"github.com/uptrace/bun"
)

var DatasetSpec = query.Spec{
	Filterable: map[string]query.Field{
		"dataset_type": {Column: "ds.dataset_type"},
	},
	Searchable:   []string{"ds.name", "ds.source"},
	Sortable:     map[string]string{"name": "ds.name", "created_at": "ds.created_at"},
	DefaultOrder: []string{"ds.name ASC"},
}

type DatasetService struct {
	db *bun.DB
}

func NewDatasetService(db *bun.DB) *DatasetService {
	return &DatasetService{db: db}
}

type DatasetInput struct {
	Name         string         `json:"name" validate:"required"`
	DatasetType  string         `json:"dataset_type" validate:"required,oneof=resource climate phes"`
	Source       string         `json:"source"`
	Description  string         `json:"description"`
	FileName     string         `json:"file_name"`
	FileChecksum string         `json:"file_checksum"`
	Metadata     map[string]any `json:"metadata"`
}

func (s *DatasetService) List(ctx context.Context, p query.ListParams) ([]models.EnergyDataset, int, error) {
	var datasets []models.EnergyDataset
	q := s.db.NewSelect().Model(&datasets)
	q = DatasetSpec.Apply(q, p)
	count, err := p.Paginate(q).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return datasets, count, nil
}

func (s *DatasetService) Get(ctx context.Context, id int64) (*models.EnergyDataset, error) {
	dataset := new(models.EnergyDataset)
	err := s.db.NewSelect().Model(dataset).Where("ds.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("dataset %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return dataset, nil
}

func (s *DatasetService) Create(ctx context.Context, input DatasetInput) (*models.EnergyDataset, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dataset := &models.EnergyDataset{
		Name:         input.Name,
		DatasetType:  input.DatasetType,
		Source:       input.Source,
		Description:  input.Description,
		FileName:     input.FileName,
		FileChecksum: input.FileChecksum,
		Metadata:     input.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.db.NewInsert().Model(dataset).Exec(ctx); err != nil {
		return nil, err
	}
	return dataset, nil
}

func (s *DatasetService) Update(ctx context.Context, id int64, input DatasetInput) (*models.EnergyDataset, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	dataset, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	dataset.Name = input.Name
	dataset.DatasetType = input.DatasetType
	dataset.Source = input.Source
	dataset.Description = input.Description
	dataset.FileName = input.FileName
	dataset.FileChecksum = input.FileChecksum
	dataset.Metadata = input.Metadata
	dataset.UpdatedAt = time.Now().UTC()

	if _, err := s.db.NewUpdate().Model(dataset).WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return dataset, nil
}

// Delete removes a dataset. Metrics and climate series cascade; hydro sites
// keep their row with the dataset link cleared.
func (s *DatasetService) Delete(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.EnergyDataset)(nil)).
			Where("ds.id = ?", id).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("dataset %d not found", id)
		}

		if _, err := tx.NewDelete().Model((*models.ResourceMetric)(nil)).Where("rm.dataset_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.ClimateSeries)(nil)).Where("cs.dataset_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model((*models.HydroSite)(nil)).Set("dataset_id = NULL").Where("dataset_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewDelete().Model((*models.EnergyDataset)(nil)).Where("ds.id = ?", id).Exec(ctx)
		return err
	})
}

// GetOrCreateByName reuses a dataset of the same name or records a new one.
// Import runs share a single dataset row this way.
func (s *DatasetService) GetOrCreateByName(ctx context.Context, name, datasetType, source string) (*models.EnergyDataset, error) {
	dataset := new(models.EnergyDataset)
	err := s.db.NewSelect().Model(dataset).Where("ds.name = ?", name).Limit(1).Scan(ctx)
	if err == nil {
		return dataset, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now().UTC()
	dataset = &models.EnergyDataset{
		Name:        name,
		DatasetType: datasetType,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.db.NewInsert().Model(dataset).Exec(ctx); err != nil {
		return nil, err
	}
	return dataset, nil
}
