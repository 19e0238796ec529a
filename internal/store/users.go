package store

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/models"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) CountByUsername(ctx context.Context, username string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Count(&n).Error
	return n, err
}

func (r *userRepo) CountByEmail(ctx context.Context, email string, exceptID uint) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return affected(r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("password", hash))
}

func (r *userRepo) UpdateProfile(ctx context.Context, id uint, p Profile) error {
	changes := p.columns()
	if len(changes) == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}
	return affected(r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(changes))
}

func (p Profile) columns() map[string]any {
	m := map[string]any{}
	if p.Email != nil {
		m["email"] = *p.Email
	}
	if p.Phone != nil {
		m["phone"] = *p.Phone
	}
	if p.Question != nil {
		m["question"] = *p.Question
	}
	if p.Answer != nil {
		m["answer"] = *p.Answer
	}
	return m
}
