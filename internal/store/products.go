package store

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/models"
	"storefront/internal/paging"
)

type productRepo struct {
	db *gorm.DB
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, id uint, patch ProductPatch) error {
	changes := patch.columns()
	if len(changes) == 0 {
		// nothing to write, but the product must still exist
		_, err := r.FindByID(ctx, id)
		return err
	}
	return affected(r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(changes))
}

func (p ProductPatch) columns() map[string]any {
	m := map[string]any{}
	if p.CategoryID != nil {
		m["category_id"] = *p.CategoryID
	}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Subtitle != nil {
		m["subtitle"] = *p.Subtitle
	}
	if p.MainImage != nil {
		m["main_image"] = *p.MainImage
	}
	if p.SubImages != nil {
		m["sub_images"] = *p.SubImages
	}
	if p.Detail != nil {
		m["detail"] = *p.Detail
	}
	if p.Price != nil {
		m["price"] = *p.Price
	}
	if p.Stock != nil {
		m["stock"] = *p.Stock
	}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	return m
}

func (r *productRepo) UpdateStatus(ctx context.Context, id uint, status models.ProductStatus) error {
	return affected(r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("status", status))
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepo) List(ctx context.Context, q paging.Query) ([]models.Product, int64, error) {
	return pageOf[models.Product](r.db.WithContext(ctx).Model(&models.Product{}), q, "id asc")
}

func (r *productRepo) Search(ctx context.Context, name string, id uint, q paging.Query) ([]models.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Product{})
	if name != "" {
		tx = tx.Where("name LIKE ?", "%"+name+"%")
	}
	if id > 0 {
		tx = tx.Where("id = ?", id)
	}
	return pageOf[models.Product](tx, q, "id asc")
}

func (r *productRepo) Filter(ctx context.Context, f ProductFilter, q paging.Query) ([]models.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Product{})
	if f.OnSaleOnly {
		tx = tx.Where("status = ?", models.ProductOnSale)
	}
	if f.Keyword != "" {
		tx = tx.Where("name LIKE ?", "%"+f.Keyword+"%")
	}
	if len(f.CategoryIDs) > 0 {
		tx = tx.Where("category_id IN ?", f.CategoryIDs)
	}
	order := "id asc"
	switch f.OrderBy {
	case OrderByPriceAsc:
		order = "price asc, id asc"
	case OrderByPriceDesc:
		order = "price desc, id asc"
	}
	return pageOf[models.Product](tx, q, order)
}

func (r *productRepo) DecreaseStock(ctx context.Context, id uint, qty int) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockShortage
	}
	return nil
}
