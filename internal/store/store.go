// Package store defines the persistence contracts of the storefront and their
// gorm implementation. Lookups that match nothing return models.ErrNotFound.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/paging"
)

// ErrStockShortage is returned when a guarded stock decrement loses against
// the current inventory.
var ErrStockShortage = errors.New("insufficient stock")

// UserRepository persists users.
type UserRepository interface {
	CountByUsername(ctx context.Context, username string) (int64, error)
	// CountByEmail ignores the user with id exceptID (0 ignores nobody).
	CountByEmail(ctx context.Context, email string, exceptID uint) (int64, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	UpdateProfile(ctx context.Context, id uint, p Profile) error
}

// Profile lists the user-editable fields to overwrite; nil fields are left alone.
type Profile struct {
	Email    *string
	Phone    *string
	Question *string
	Answer   *string
}

// CategoryRepository persists the category tree.
type CategoryRepository interface {
	Create(ctx context.Context, c *models.Category) error
	UpdateName(ctx context.Context, id uint, name string) error
	FindByID(ctx context.Context, id uint) (*models.Category, error)
	FindByParentID(ctx context.Context, parentID uint) ([]models.Category, error)
}

// ProductFilter narrows the storefront listing. Empty fields do not filter.
type ProductFilter struct {
	Keyword     string
	CategoryIDs []uint
	OnSaleOnly  bool
	OrderBy     string
}

const (
	OrderByPriceAsc  = "price_asc"
	OrderByPriceDesc = "price_desc"
)

// ProductPatch lists the product fields to overwrite; nil fields are left alone.
type ProductPatch struct {
	CategoryID *uint
	Name       *string
	Subtitle   *string
	MainImage  *string
	SubImages  *string
	Detail     *string
	Price      *decimal.Decimal
	Stock      *int
	Status     *models.ProductStatus
}

// ProductRepository persists products and their stock.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id uint, patch ProductPatch) error
	UpdateStatus(ctx context.Context, id uint, status models.ProductStatus) error
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error)
	List(ctx context.Context, q paging.Query) ([]models.Product, int64, error)
	Search(ctx context.Context, name string, id uint, q paging.Query) ([]models.Product, int64, error)
	Filter(ctx context.Context, f ProductFilter, q paging.Query) ([]models.Product, int64, error)
	// DecreaseStock fails with ErrStockShortage when stock < qty.
	DecreaseStock(ctx context.Context, id uint, qty int) error
}

// CartRepository persists cart lines, one per user and product.
type CartRepository interface {
	FindByUserAndProduct(ctx context.Context, userID, productID uint) (*models.CartItem, error)
	ListByUser(ctx context.Context, userID uint) ([]models.CartItem, error)
	ListCheckedByUser(ctx context.Context, userID uint) ([]models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, id uint, qty int) error
	DeleteProducts(ctx context.Context, userID uint, productIDs []uint) error
	DeleteByIDs(ctx context.Context, ids []uint) error
	// SetChecked touches every line of the user when productID is 0.
	SetChecked(ctx context.Context, userID, productID uint, checked bool) error
	SumQuantity(ctx context.Context, userID uint) (int, error)
}

// ShippingRepository persists receiver addresses.
type ShippingRepository interface {
	Create(ctx context.Context, s *models.Shipping) error
	DeleteByUser(ctx context.Context, userID, id uint) error
	UpdateByUser(ctx context.Context, s *models.Shipping) error
	FindByUser(ctx context.Context, userID, id uint) (*models.Shipping, error)
	FindByID(ctx context.Context, id uint) (*models.Shipping, error)
	ListByUser(ctx context.Context, userID uint, q paging.Query) ([]models.Shipping, int64, error)
}

// OrderRepository persists orders, their items and payment notifications.
type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByOrderNo(ctx context.Context, orderNo int64) (*models.Order, error)
	FindByUserAndOrderNo(ctx context.Context, userID uint, orderNo int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint, q paging.Query) ([]models.Order, int64, error)
	ListAll(ctx context.Context, q paging.Query) ([]models.Order, int64, error)
	ItemsByOrderNos(ctx context.Context, orderNos []int64) ([]models.OrderItem, error)
	// TransitionStatus moves an order from one status to another and reports
	// models.ErrNotFound when the order is not in status from.
	TransitionStatus(ctx context.Context, id uint, from, to models.OrderStatus) error
	// MarkPaid applies to any order not yet paid.
	MarkPaid(ctx context.Context, id uint, at time.Time) error
	// MarkShipped applies to paid orders only.
	MarkShipped(ctx context.Context, id uint, at time.Time) error
	CreatePayInfo(ctx context.Context, p *models.PayInfo) error
}

// Repos bundles every repository bound to the same connection or transaction.
type Repos struct {
	Users      UserRepository
	Categories CategoryRepository
	Products   ProductRepository
	Carts      CartRepository
	Shippings  ShippingRepository
	Orders     OrderRepository
}

// Transactor runs fn with repositories bound to a single transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(r Repos) error) error
}
