package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"sitegear-custody/internal/adapters/persistence/models"
	"sitegear-custody/internal/core/domain"
)

// assetRepository implements AssetRepository interface
type assetRepository struct {
	db *gorm.DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

// Create creates a new asset
func (r *assetRepository) Create(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

// GetByID gets an asset by ID
func (r *assetRepository) GetByID(ctx context.Context, id uint) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.WithContext(ctx).First(&asset, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// GetByIDs gets multiple assets in one query
func (r *assetRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Asset, error) {
	var assets []*models.Asset
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&assets).Error
	return assets, err
}

// GetByCode gets an asset by its asset code
func (r *assetRepository) GetByCode(ctx context.Context, code string) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.WithContext(ctx).Where("asset_code = ?", code).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// Update updates an asset
func (r *assetRepository) Update(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).Save(asset).Error
}

// Delete soft deletes an asset
func (r *assetRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Asset{}, id).Error
}

// List lists assets with optional category filter and pagination
func (r *assetRepository) List(ctx context.Context, category string, offset, limit int) ([]*models.Asset, int64, error) {
	var assets []*models.Asset
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Asset{})
	if category != "" {
		q = q.Where("category = ?", category)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("asset_code ASC").Offset(offset).Limit(limit).Find(&assets).Error
	return assets, total, err
}
