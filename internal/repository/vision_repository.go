package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lifeplanner/internal/model"
)

// VisionRepository handles vision board items.
type VisionRepository struct {
	db *gorm.DB
}

func NewVisionRepository(db *gorm.DB) *VisionRepository {
	return &VisionRepository{db: db}
}

func (r *VisionRepository) Create(ctx context.Context, item *model.VisionItem) error {
	if item.ID == "" {
		item.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create vision item: %w", err)
	}
	return nil
}

func (r *VisionRepository) ListByUser(ctx context.Context, userID string) ([]model.VisionItem, error) {
	var items []model.VisionItem
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *VisionRepository) Update(ctx context.Context, userID, itemID string, fields map[string]any) error {
	scope := r.db.WithContext(ctx).Model(&model.VisionItem{}).Where("user_id = ?", userID)
	if err := scopedUpdate(scope, itemID, fields); err != nil {
		return fmt.Errorf("update vision item: %w", err)
	}
	return nil
}

func (r *VisionRepository) Delete(ctx context.Context, userID, itemID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, itemID).Delete(&model.VisionItem{})
	if err := checkDeleted(res); err != nil {
		return fmt.Errorf("delete vision item: %w", err)
	}
	return nil
}
