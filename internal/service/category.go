package service

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/logx"
	"storefront/internal/models"
	"storefront/internal/store"
)

// CategoryService manages the category tree.
type CategoryService struct {
	categories store.CategoryRepository
}

// NewCategoryService builds a CategoryService.
func NewCategoryService(categories store.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// Add creates a category under parentID, 0 being the root.
func (s *CategoryService) Add(ctx context.Context, name string, parentID uint) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Fail("Invalid parameters")
	}
	c := models.Category{ParentID: parentID, Name: name, Status: true}
	if err := s.categories.Create(ctx, &c); err != nil {
		return apperr.Wrap(err, "Failed to add category")
	}
	return nil
}

func (s *CategoryService) Rename(ctx context.Context, id uint, name string) error {
	name = strings.TrimSpace(name)
	if id == 0 || name == "" {
		return apperr.Fail("Invalid parameters")
	}
	if err := s.categories.UpdateName(ctx, id, name); err != nil {
		return lookup(err, "Failed to update category name")
	}
	return nil
}

// Children lists the direct children of parentID.
func (s *CategoryService) Children(ctx context.Context, parentID uint) ([]models.Category, error) {
	list, err := s.categories.FindByParentID(ctx, parentID)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load categories")
	}
	if len(list) == 0 {
		logx.Info().Uint("parentId", parentID).Msg("no child categories found")
		return []models.Category{}, nil
	}
	return list, nil
}

// DeepChildIDs returns id (when it exists) followed by every descendant,
// depth first. Each id appears once even if parent links form a cycle.
func (s *CategoryService) DeepChildIDs(ctx context.Context, id uint) ([]uint, error) {
	ids := []uint{}
	seen := map[uint]bool{}

	if id != 0 {
		c, err := s.categories.FindByID(ctx, id)
		switch {
		case err == nil:
			ids = append(ids, c.ID)
			seen[c.ID] = true
		case !errors.Is(err, models.ErrNotFound):
			return nil, apperr.Wrap(err, "Failed to load categories")
		}
	}

	var walk func(parent uint) error
	walk = func(parent uint) error {
		children, err := s.categories.FindByParentID(ctx, parent)
		if err != nil {
			return err
		}
		for _, ch := range children {
			if seen[ch.ID] {
				continue
			}
			seen[ch.ID] = true
			ids = append(ids, ch.ID)
			if err := walk(ch.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(id); err != nil {
		return nil, apperr.Wrap(err, "Failed to load categories")
	}
	return ids, nil
}
