package store

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/models"
)

type categoryRepo struct {
	db *gorm.DB
}

func (r *categoryRepo) Create(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoryRepo) UpdateName(ctx context.Context, id uint, name string) error {
	return affected(r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", id).
		Update("name", name))
}

func (r *categoryRepo) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *categoryRepo) FindByParentID(ctx context.Context, parentID uint) ([]models.Category, error) {
	var list []models.Category
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("sort_order asc, id asc").
		Find(&list).Error
	return list, err
}
