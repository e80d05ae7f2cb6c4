package services

import (
	"context"
	"errors"

	"sitegear-custody/internal/adapters/persistence/models"
	"sitegear-custody/internal/adapters/persistence/repositories"
	"sitegear-custody/internal/core/domain"
)

// Asset service errors
var (
	ErrAssetCodeTaken = errors.New("asset code already exists")
)

// AssetService handles the equipment catalog
type AssetService struct {
	assetRepo repositories.AssetRepository
}

// NewAssetService creates a new asset service
func NewAssetService(assetRepo repositories.AssetRepository) *AssetService {
	return &AssetService{assetRepo: assetRepo}
}

// CreateAssetInput represents create asset input
type CreateAssetInput struct {
	AssetCode   string  `json:"asset_code" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	UnitValue   float64 `json:"unit_value" validate:"required,gte=0"`
	StockQty    int     `json:"stock_qty" validate:"gte=0"`
	Description string  `json:"description,omitempty"`
}

// UpdateAssetInput represents update asset input
type UpdateAssetInput struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	UnitValue   *float64 `json:"unit_value"`
	StockQty    *int     `json:"stock_qty"`
	Description *string  `json:"description"`
	IsActive    *bool    `json:"is_active"`
}

// Create creates a new asset
func (s *AssetService) Create(ctx context.Context, input *CreateAssetInput) (*models.Asset, error) {
	if _, err := s.assetRepo.GetByCode(ctx, input.AssetCode); err == nil {
		return nil, ErrAssetCodeTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	asset := &models.Asset{
		AssetCode:   input.AssetCode,
		Name:        input.Name,
		Category:    input.Category,
		UnitValue:   input.UnitValue,
		StockQty:    input.StockQty,
		Description: input.Description,
		IsActive:    true,
	}
	if err := s.assetRepo.Create(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// GetByID gets an asset by ID
func (s *AssetService) GetByID(ctx context.Context, id uint) (*models.Asset, error) {
	return s.assetRepo.GetByID(ctx, id)
}

// Update updates an asset. Changes never touch existing requests: line items
// snapshot value and category at creation.
func (s *AssetService) Update(ctx context.Context, id uint, input *UpdateAssetInput) (*models.Asset, error) {
	asset, err := s.assetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		asset.Name = *input.Name
	}
	if input.Category != nil {
		asset.Category = *input.Category
	}
	if input.UnitValue != nil {
		asset.UnitValue = *input.UnitValue
	}
	if input.StockQty != nil {
		asset.StockQty = *input.StockQty
	}
	if input.Description != nil {
		asset.Description = *input.Description
	}
	if input.IsActive != nil {
		asset.IsActive = *input.IsActive
	}

	if err := s.assetRepo.Update(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// Delete soft deletes an asset
func (s *AssetService) Delete(ctx context.Context, id uint) error {
	if _, err := s.assetRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.assetRepo.Delete(ctx, id)
}

// List lists assets with optional category filter
func (s *AssetService) List(ctx context.Context, category string, page, limit int) ([]*models.Asset, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.assetRepo.List(ctx, category, (page-1)*limit, limit)
}
