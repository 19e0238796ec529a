package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"storefront/internal/models"
	"storefront/internal/paging"
)

// Gorm serves every repository from one *gorm.DB.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Repos() Repos { return reposFor(g.db) }

func (g *Gorm) Transaction(ctx context.Context, fn func(r Repos) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

// Ping checks the underlying connection.
func (g *Gorm) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func reposFor(db *gorm.DB) Repos {
	return Repos{
		Users:      &userRepo{db: db},
		Categories: &categoryRepo{db: db},
		Products:   &productRepo{db: db},
		Carts:      &cartRepo{db: db},
		Shippings:  &shippingRepo{db: db},
		Orders:     &orderRepo{db: db},
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return err
}

// affected maps a write that touched no row to models.ErrNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// pageOf counts tx and fetches one page of it. tx must carry a Model.
func pageOf[T any](tx *gorm.DB, q paging.Query, order string) ([]T, int64, error) {
	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []T
	if total == 0 {
		return list, 0, nil
	}
	err := tx.Session(&gorm.Session{}).
		Order(order).
		Offset(q.Offset()).
		Limit(q.Limit()).
		Find(&list).Error
	return list, total, err
}
