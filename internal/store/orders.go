package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storefront/internal/models"
	"storefront/internal/paging"
)

type orderRepo struct {
	db *gorm.DB
}

func (r *orderRepo) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *orderRepo) FindByOrderNo(ctx context.Context, orderNo int64) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *orderRepo) FindByUserAndOrderNo(ctx context.Context, userID uint, orderNo int64) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND order_no = ?", userID, orderNo).
		First(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID uint, q paging.Query) ([]models.Order, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return pageOf[models.Order](tx, q, "id desc")
}

func (r *orderRepo) ListAll(ctx context.Context, q paging.Query) ([]models.Order, int64, error) {
	return pageOf[models.Order](r.db.WithContext(ctx).Model(&models.Order{}), q, "id desc")
}

func (r *orderRepo) ItemsByOrderNos(ctx context.Context, orderNos []int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if len(orderNos) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("order_no IN ?", orderNos).
		Order("id asc").
		Find(&items).Error
	return items, err
}

func (r *orderRepo) TransitionStatus(ctx context.Context, id uint, from, to models.OrderStatus) error {
	changes := map[string]any{"status": to}
	if to == models.OrderCanceled || to == models.OrderClosed {
		changes["close_time"] = time.Now()
	}
	return affected(r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(changes))
}

func (r *orderRepo) MarkPaid(ctx context.Context, id uint, at time.Time) error {
	return affected(r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status < ?", id, models.OrderPaid).
		Updates(map[string]any{"status": models.OrderPaid, "payment_time": at}))
}

func (r *orderRepo) MarkShipped(ctx context.Context, id uint, at time.Time) error {
	return affected(r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderPaid).
		Updates(map[string]any{"status": models.OrderShipped, "send_time": at}))
}

func (r *orderRepo) CreatePayInfo(ctx context.Context, p *models.PayInfo) error {
	return r.db.WithContext(ctx).Create(p).Error
}
