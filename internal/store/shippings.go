package store

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/models"
	"storefront/internal/paging"
)

type shippingRepo struct {
	db *gorm.DB
}

func (r *shippingRepo) Create(ctx context.Context, s *models.Shipping) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shippingRepo) DeleteByUser(ctx context.Context, userID, id uint) error {
	return affected(r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Shipping{}))
}

func (r *shippingRepo) UpdateByUser(ctx context.Context, s *models.Shipping) error {
	return affected(r.db.WithContext(ctx).Model(&models.Shipping{}).
		Where("id = ? AND user_id = ?", s.ID, s.UserID).
		Updates(map[string]any{
			"receiver_name":     s.ReceiverName,
			"receiver_phone":    s.ReceiverPhone,
			"receiver_mobile":   s.ReceiverMobile,
			"receiver_province": s.ReceiverProvince,
			"receiver_city":     s.ReceiverCity,
			"receiver_district": s.ReceiverDistrict,
			"receiver_address":  s.ReceiverAddress,
			"receiver_zip":      s.ReceiverZip,
		}))
}

func (r *shippingRepo) FindByUser(ctx context.Context, userID, id uint) (*models.Shipping, error) {
	var s models.Shipping
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *shippingRepo) FindByID(ctx context.Context, id uint) (*models.Shipping, error) {
	var s models.Shipping
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *shippingRepo) ListByUser(ctx context.Context, userID uint, q paging.Query) ([]models.Shipping, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Shipping{}).Where("user_id = ?", userID)
	return pageOf[models.Shipping](tx, q, "id asc")
}
