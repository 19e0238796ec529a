package store

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/models"
)

type cartRepo struct {
	db *gorm.DB
}

func (r *cartRepo) FindByUserAndProduct(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *cartRepo) ListByUser(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var list []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&list).Error
	return list, err
}

func (r *cartRepo) ListCheckedByUser(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var list []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND checked = ?", userID, true).
		Order("id asc").
		Find(&list).Error
	return list, err
}

func (r *cartRepo) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartRepo) UpdateQuantity(ctx context.Context, id uint, qty int) error {
	return affected(r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", id).
		Update("quantity", qty))
}

func (r *cartRepo) DeleteProducts(ctx context.Context, userID uint, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Delete(&models.CartItem{}).Error
}

func (r *cartRepo) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, ids).Error
}

func (r *cartRepo) SetChecked(ctx context.Context, userID, productID uint, checked bool) error {
	tx := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("user_id = ?", userID)
	if productID != 0 {
		tx = tx.Where("product_id = ?", productID)
	}
	return tx.Update("checked", checked).Error
}

func (r *cartRepo) SumQuantity(ctx context.Context, userID uint) (int, error) {
	var n int
	err := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&n).Error
	return n, err
}
