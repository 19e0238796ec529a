package service

import (
	"context"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/paging"
	"storefront/internal/store"
)

// ShippingService manages the saved addresses of one user at a time; every
// lookup is scoped to that user.
type ShippingService struct {
	shippings store.ShippingRepository
}

// NewShippingService builds a ShippingService.
func NewShippingService(shippings store.ShippingRepository) *ShippingService {
	return &ShippingService{shippings: shippings}
}

// Add stores an address for userID and returns its id.
func (s *ShippingService) Add(ctx context.Context, userID uint, sh models.Shipping) (uint, error) {
	if strings.TrimSpace(sh.ReceiverName) == "" {
		return 0, apperr.IllegalArgument()
	}
	sh.ID = 0
	sh.UserID = userID
	if err := s.shippings.Create(ctx, &sh); err != nil {
		return 0, apperr.Wrap(err, "Failed to add the address")
	}
	return sh.ID, nil
}

// Delete removes an address owned by userID.
func (s *ShippingService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.shippings.DeleteByUser(ctx, userID, id); err != nil {
		return lookup(err, "Failed to delete the address")
	}
	return nil
}

func (s *ShippingService) Update(ctx context.Context, userID uint, sh models.Shipping) error {
	if sh.ID == 0 {
		return apperr.IllegalArgument()
	}
	sh.UserID = userID
	if err := s.shippings.UpdateByUser(ctx, &sh); err != nil {
		return lookup(err, "Failed to update the address")
	}
	return nil
}

func (s *ShippingService) Select(ctx context.Context, userID, id uint) (*models.Shipping, error) {
	sh, err := s.shippings.FindByUser(ctx, userID, id)
	if err != nil {
		return nil, lookup(err, "Unable to find the address")
	}
	return sh, nil
}

func (s *ShippingService) List(ctx context.Context, userID uint, q paging.Query) (paging.Page[models.Shipping], error) {
	list, total, err := s.shippings.ListByUser(ctx, userID, q)
	if err != nil {
		return paging.Page[models.Shipping]{}, apperr.Wrap(err, "Failed to list addresses")
	}
	return paging.NewPage(q, total, list), nil
}
