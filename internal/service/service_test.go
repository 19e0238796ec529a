package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apperr"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/paging"
	"storefront/internal/store/memstore"
	"storefront/internal/tokencache"
)

const testImageHost = "http://img.test/"

type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	ctx        context.Context
	db         *memstore.Store
	tokens     *tokencache.Memory
	pub        *recorder
	users      *UserService
	categories *CategoryService
	products   *ProductService
	carts      *CartService
	shippings  *ShippingService
	orders     *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	r := db.Repos()
	f := &fixture{
		ctx:    context.Background(),
		db:     db,
		tokens: tokencache.NewMemory(time.Hour),
		pub:    &recorder{},
	}
	f.users = NewUserService(r.Users, f.tokens)
	f.categories = NewCategoryService(r.Categories)
	f.products = NewProductService(r.Products, r.Categories, testImageHost)
	f.carts = NewCartService(r.Carts, r.Products, testImageHost)
	f.shippings = NewShippingService(r.Shippings)
	f.orders = NewOrderService(r, db, f.pub, testImageHost)
	return f
}

func (f *fixture) product(t *testing.T, name, price string, stock int, categoryID uint) *models.Product {
	t.Helper()
	p := &models.Product{
		CategoryID: categoryID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		Status:     models.ProductOnSale,
	}
	require.NoError(t, f.db.Repos().Products.Create(f.ctx, p))
	return p
}

func (f *fixture) category(t *testing.T, name string, parentID uint) uint {
	t.Helper()
	c := &models.Category{Name: name, ParentID: parentID, Status: true}
	require.NoError(t, f.db.Repos().Categories.Create(f.ctx, c))
	return c.ID
}

// failure asserts err is an *apperr.Error with the given code and returns its message.
func failure(t *testing.T, err error, code apperr.Code) string {
	t.Helper()
	require.Error(t, err)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae), "want *apperr.Error, got %T", err)
	assert.Equal(t, code, ae.Code)
	return ae.Message
}

func shippingFixture() models.Shipping {
	return models.Shipping{
		ReceiverName:    "Alice",
		ReceiverMobile:  "5550100",
		ReceiverCity:    "Oslo",
		ReceiverAddress: "Main st 1",
	}
}

func pagingFirst() paging.Query { return paging.New(1, 10) }

func uintString(v uint) string { return strconv.FormatUint(uint64(v), 10) }
