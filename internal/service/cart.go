package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// Stock check outcomes reported on each cart line.
const (
	LimitNumSuccess = "LIMIT_NUM_SUCCESS"
	LimitNumFail    = "LIMIT_NUM_FAIL"
)

// CartService manages the per-user shopping cart.
type CartService struct {
	carts     store.CartRepository
	products  store.ProductRepository
	imageHost string
}

// NewCartService builds a CartService; imageHost prefixes image names in views.
func NewCartService(carts store.CartRepository, products store.ProductRepository, imageHost string) *CartService {
	return &CartService{carts: carts, products: products, imageHost: imageHost}
}

// CartLine is one cart entry joined with its product.
type CartLine struct {
	ID                uint                 `json:"id"`
	UserID            uint                 `json:"userId"`
	ProductID         uint                 `json:"productId"`
	Quantity          int                  `json:"quantity"`
	ProductName       string               `json:"productName"`
	ProductSubtitle   string               `json:"productSubtitle"`
	ProductMainImage  string               `json:"productMainImage"`
	ProductPrice      decimal.Decimal      `json:"productPrice"`
	ProductStatus     models.ProductStatus `json:"productStatus"`
	ProductStock      int                  `json:"productStock"`
	ProductTotalPrice decimal.Decimal      `json:"productTotalPrice"`
	ProductChecked    bool                 `json:"productChecked"`
	LimitQuantity     string               `json:"limitQuantity"`
}

// CartView is the whole cart of a user with the total of checked lines.
type CartView struct {
	List           []CartLine      `json:"cartProductVoList"`
	CartTotalPrice decimal.Decimal `json:"cartTotalPrice"`
	AllChecked     bool            `json:"allChecked"`
	ImageHost      string          `json:"imageHost"`
}

// List returns the cart, clamping quantities that exceed the current stock.
func (s *CartService) List(ctx context.Context, userID uint) (CartView, error) {
	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return CartView{}, apperr.Wrap(err, "Failed to load the cart")
	}
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return CartView{}, apperr.Wrap(err, "Failed to load the cart")
	}

	view := CartView{List: make([]CartLine, 0, len(items)), CartTotalPrice: decimal.Zero, ImageHost: s.imageHost}
	allChecked := len(items) > 0
	for _, it := range items {
		line := CartLine{
			ID:                it.ID,
			UserID:            it.UserID,
			ProductID:         it.ProductID,
			Quantity:          it.Quantity,
			ProductChecked:    it.Checked,
			ProductTotalPrice: decimal.Zero,
			LimitQuantity:     LimitNumSuccess,
		}
		if p, ok := products[it.ProductID]; ok {
			if p.Stock < it.Quantity {
				line.Quantity = p.Stock
				line.LimitQuantity = LimitNumFail
				if err := s.carts.UpdateQuantity(ctx, it.ID, p.Stock); err != nil {
					return CartView{}, apperr.Wrap(err, "Failed to load the cart")
				}
			}
			line.ProductName = p.Name
			line.ProductSubtitle = p.Subtitle
			line.ProductMainImage = p.MainImage
			line.ProductPrice = p.Price
			line.ProductStatus = p.Status
			line.ProductStock = p.Stock
			line.ProductTotalPrice = p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		}
		if it.Checked {
			view.CartTotalPrice = view.CartTotalPrice.Add(line.ProductTotalPrice)
		} else {
			allChecked = false
		}
		view.List = append(view.List, line)
	}
	view.AllChecked = allChecked
	return view, nil
}

// Add puts count units of productID into the cart, accumulating onto an existing line.
func (s *CartService) Add(ctx context.Context, userID, productID uint, count int) (CartView, error) {
	if productID == 0 || count <= 0 {
		return CartView{}, apperr.IllegalArgument()
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return CartView{}, apperr.IllegalArgument()
		}
		return CartView{}, apperr.Wrap(err, "Failed to add to cart")
	}

	item, err := s.carts.FindByUserAndProduct(ctx, userID, productID)
	switch {
	case err == nil:
		err = s.carts.UpdateQuantity(ctx, item.ID, item.Quantity+count)
	case errors.Is(err, models.ErrNotFound):
		err = s.carts.Create(ctx, &models.CartItem{UserID: userID, ProductID: productID, Quantity: count, Checked: true})
	}
	if err != nil {
		return CartView{}, apperr.Wrap(err, "Failed to add to cart")
	}
	return s.List(ctx, userID)
}

// Update sets the quantity of an existing line.
func (s *CartService) Update(ctx context.Context, userID, productID uint, count int) (CartView, error) {
	if productID == 0 || count <= 0 {
		return CartView{}, apperr.IllegalArgument()
	}
	item, err := s.carts.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return CartView{}, lookup(err, "The product is not in the cart")
	}
	if err := s.carts.UpdateQuantity(ctx, item.ID, count); err != nil {
		return CartView{}, lookup(err, "Failed to update the cart")
	}
	return s.List(ctx, userID)
}

// DeleteProducts removes the comma separated product ids from the cart.
func (s *CartService) DeleteProducts(ctx context.Context, userID uint, productIDs string) (CartView, error) {
	ids, err := parseIDs(productIDs)
	if err != nil || len(ids) == 0 {
		return CartView{}, apperr.IllegalArgument()
	}
	if err := s.carts.DeleteProducts(ctx, userID, ids); err != nil {
		return CartView{}, apperr.Wrap(err, "Failed to delete from the cart")
	}
	return s.List(ctx, userID)
}

// SetChecked toggles one line, or every line when productID is 0.
func (s *CartService) SetChecked(ctx context.Context, userID, productID uint, checked bool) (CartView, error) {
	if err := s.carts.SetChecked(ctx, userID, productID, checked); err != nil {
		return CartView{}, apperr.Wrap(err, "Failed to update the cart")
	}
	return s.List(ctx, userID)
}

// Count is the total quantity across all lines.
func (s *CartService) Count(ctx context.Context, userID uint) (int, error) {
	n, err := s.carts.SumQuantity(ctx, userID)
	if err != nil {
		return 0, apperr.Wrap(err, "Failed to count the cart")
	}
	return n, nil
}

func parseIDs(csv string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 0)
		if err != nil || n == 0 {
			return nil, errors.New("invalid id " + part)
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}
