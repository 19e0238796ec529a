package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/paging"
	"storefront/internal/store"
)

type users struct {
	s  *Store
	mu sync.Locker
}

func (r users) CountByUsername(_ context.Context, username string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.s.users {
		if u.Username == username {
			n++
		}
	}
	return n, nil
}

func (r users) CountByEmail(_ context.Context, email string, exceptID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.s.users {
		if u.Email == email && u.ID != exceptID {
			n++
		}
	}
	return n, nil
}

func (r users) FindByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (r users) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r users) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.s.users {
		if x.Username == u.Username || x.Email == u.Email {
			return ErrDuplicate
		}
	}
	if u.Role == "" {
		u.Role = models.RoleCustomer
	}
	r.s.stamp(&u.Base)
	r.s.users[u.ID] = *u
	return nil
}

func (r users) UpdatePassword(_ context.Context, id uint, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

func (r users) UpdateProfile(_ context.Context, id uint, p store.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return models.ErrNotFound
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Question != nil {
		u.Question = *p.Question
	}
	if p.Answer != nil {
		u.Answer = *p.Answer
	}
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

type categories struct {
	s  *Store
	mu sync.Locker
}

func (r categories) Create(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.stamp(&c.Base)
	r.s.categories[c.ID] = *c
	return nil
}

func (r categories) UpdateName(_ context.Context, id uint, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return models.ErrNotFound
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	r.s.categories[id] = c
	return nil
}

func (r categories) FindByID(_ context.Context, id uint) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (r categories) FindByParentID(_ context.Context, parentID uint) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := where(sortedValues(r.s.categories), func(c models.Category) bool { return c.ParentID == parentID })
	slices.SortStableFunc(list, func(a, b models.Category) int { return cmp.Compare(a.SortOrder, b.SortOrder) })
	return list, nil
}

type products struct {
	s  *Store
	mu sync.Locker
}

func (r products) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Status == 0 {
		p.Status = models.ProductOnSale
	}
	r.s.stamp(&p.Base)
	r.s.products[p.ID] = *p
	return nil
}

func (r products) Update(_ context.Context, id uint, patch store.ProductPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return models.ErrNotFound
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Subtitle != nil {
		p.Subtitle = *patch.Subtitle
	}
	if patch.MainImage != nil {
		p.MainImage = *patch.MainImage
	}
	if patch.SubImages != nil {
		p.SubImages = *patch.SubImages
	}
	if patch.Detail != nil {
		p.Detail = *patch.Detail
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	p.UpdatedAt = time.Now()
	r.s.products[id] = p
	return nil
}

func (r products) UpdateStatus(_ context.Context, id uint, status models.ProductStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return models.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	r.s.products[id] = p
	return nil
}

func (r products) FindByID(_ context.Context, id uint) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (r products) FindByIDs(_ context.Context, ids []uint) (map[uint]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uint]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r products) List(_ context.Context, q paging.Query) ([]models.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, total := page(sortedValues(r.s.products), q)
	return list, total, nil
}

func (r products) Search(_ context.Context, name string, id uint, q paging.Query) ([]models.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := where(sortedValues(r.s.products), func(p models.Product) bool {
		return (name == "" || strings.Contains(p.Name, name)) && (id == 0 || p.ID == id)
	})
	list, total := page(list, q)
	return list, total, nil
}

func (r products) Filter(_ context.Context, f store.ProductFilter, q paging.Query) ([]models.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := where(sortedValues(r.s.products), func(p models.Product) bool {
		if f.OnSaleOnly && !p.OnSale() {
			return false
		}
		if f.Keyword != "" && !strings.Contains(p.Name, f.Keyword) {
			return false
		}
		return len(f.CategoryIDs) == 0 || slices.Contains(f.CategoryIDs, p.CategoryID)
	})
	switch f.OrderBy {
	case store.OrderByPriceAsc:
		slices.SortStableFunc(list, func(a, b models.Product) int { return a.Price.Cmp(b.Price) })
	case store.OrderByPriceDesc:
		slices.SortStableFunc(list, func(a, b models.Product) int { return b.Price.Cmp(a.Price) })
	}
	list, total := page(list, q)
	return list, total, nil
}

func (r products) DecreaseStock(_ context.Context, id uint, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok || p.Stock < qty {
		return store.ErrStockShortage
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now()
	r.s.products[id] = p
	return nil
}

type carts struct {
	s  *Store
	mu sync.Locker
}

func (r carts) FindByUserAndProduct(_ context.Context, userID, productID uint) (*models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.s.carts {
		if c.UserID == userID && c.ProductID == productID {
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r carts) ListByUser(_ context.Context, userID uint) ([]models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return where(sortedValues(r.s.carts), func(c models.CartItem) bool { return c.UserID == userID }), nil
}

func (r carts) ListCheckedByUser(_ context.Context, userID uint) ([]models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return where(sortedValues(r.s.carts), func(c models.CartItem) bool {
		return c.UserID == userID && c.Checked
	}), nil
}

func (r carts) Create(_ context.Context, item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.s.carts {
		if c.UserID == item.UserID && c.ProductID == item.ProductID {
			return ErrDuplicate
		}
	}
	r.s.stamp(&item.Base)
	r.s.carts[item.ID] = *item
	return nil
}

func (r carts) UpdateQuantity(_ context.Context, id uint, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.s.carts[id]
	if !ok {
		return models.ErrNotFound
	}
	c.Quantity = qty
	c.UpdatedAt = time.Now()
	r.s.carts[id] = c
	return nil
}

func (r carts) DeleteProducts(_ context.Context, userID uint, productIDs []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.s.carts {
		if c.UserID == userID && slices.Contains(productIDs, c.ProductID) {
			delete(r.s.carts, id)
		}
	}
	return nil
}

func (r carts) DeleteByIDs(_ context.Context, ids []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.s.carts, id)
	}
	return nil
}

func (r carts) SetChecked(_ context.Context, userID, productID uint, checked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.s.carts {
		if c.UserID == userID && (productID == 0 || c.ProductID == productID) {
			c.Checked = checked
			r.s.carts[id] = c
		}
	}
	return nil
}

func (r carts) SumQuantity(_ context.Context, userID uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.s.carts {
		if c.UserID == userID {
			n += c.Quantity
		}
	}
	return n, nil
}

type shippings struct {
	s  *Store
	mu sync.Locker
}

func (r shippings) Create(_ context.Context, sh *models.Shipping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.stamp(&sh.Base)
	r.s.shippings[sh.ID] = *sh
	return nil
}

func (r shippings) DeleteByUser(_ context.Context, userID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.s.shippings[id]
	if !ok || sh.UserID != userID {
		return models.ErrNotFound
	}
	delete(r.s.shippings, id)
	return nil
}

func (r shippings) UpdateByUser(_ context.Context, sh *models.Shipping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.s.shippings[sh.ID]
	if !ok || cur.UserID != sh.UserID {
		return models.ErrNotFound
	}
	next := *sh
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now()
	r.s.shippings[sh.ID] = next
	return nil
}

func (r shippings) FindByUser(_ context.Context, userID, id uint) (*models.Shipping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.s.shippings[id]
	if !ok || sh.UserID != userID {
		return nil, models.ErrNotFound
	}
	return &sh, nil
}

func (r shippings) FindByID(_ context.Context, id uint) (*models.Shipping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.s.shippings[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &sh, nil
}

func (r shippings) ListByUser(_ context.Context, userID uint, q paging.Query) ([]models.Shipping, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := where(sortedValues(r.s.shippings), func(sh models.Shipping) bool { return sh.UserID == userID })
	list, total := page(list, q)
	return list, total, nil
}

type orders struct {
	s  *Store
	mu sync.Locker
}

func (r orders) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.s.orders {
		if x.OrderNo == o.OrderNo {
			return ErrDuplicate
		}
	}
	r.s.stamp(&o.Base)
	r.s.orders[o.ID] = *o
	return nil
}

func (r orders) CreateItems(_ context.Context, items []models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range items {
		r.s.stamp(&items[i].Base)
		r.s.orderItems[items[i].ID] = items[i]
	}
	return nil
}

func (r orders) FindByOrderNo(_ context.Context, orderNo int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.s.orders {
		if o.OrderNo == orderNo {
			return &o, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r orders) FindByUserAndOrderNo(_ context.Context, userID uint, orderNo int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.s.orders {
		if o.OrderNo == orderNo && o.UserID == userID {
			return &o, nil
		}
	}
	return nil, models.ErrNotFound
}

func newestFirst(list []models.Order) []models.Order {
	slices.Reverse(list)
	return list
}

func (r orders) ListByUser(_ context.Context, userID uint, q paging.Query) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := where(sortedValues(r.s.orders), func(o models.Order) bool { return o.UserID == userID })
	list, total := page(newestFirst(list), q)
	return list, total, nil
}

func (r orders) ListAll(_ context.Context, q paging.Query) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, total := page(newestFirst(sortedValues(r.s.orders)), q)
	return list, total, nil
}

func (r orders) ItemsByOrderNos(_ context.Context, orderNos []int64) ([]models.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return where(sortedValues(r.s.orderItems), func(it models.OrderItem) bool {
		return slices.Contains(orderNos, it.OrderNo)
	}), nil
}

// update applies fn to order id when ok reports true for its current state.
func (r orders) update(id uint, ok func(models.Order) bool, fn func(*models.Order)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, found := r.s.orders[id]
	if !found || !ok(o) {
		return models.ErrNotFound
	}
	fn(&o)
	o.UpdatedAt = time.Now()
	r.s.orders[id] = o
	return nil
}

func (r orders) TransitionStatus(_ context.Context, id uint, from, to models.OrderStatus) error {
	return r.update(id, func(o models.Order) bool { return o.Status == from }, func(o *models.Order) {
		o.Status = to
		if to == models.OrderCanceled || to == models.OrderClosed {
			now := time.Now()
			o.CloseTime = &now
		}
	})
}

func (r orders) MarkPaid(_ context.Context, id uint, at time.Time) error {
	return r.update(id, func(o models.Order) bool { return o.Status < models.OrderPaid }, func(o *models.Order) {
		o.Status = models.OrderPaid
		o.PaymentTime = &at
	})
}

func (r orders) MarkShipped(_ context.Context, id uint, at time.Time) error {
	return r.update(id, func(o models.Order) bool { return o.Status == models.OrderPaid }, func(o *models.Order) {
		o.Status = models.OrderShipped
		o.SendTime = &at
	})
}

func (r orders) CreatePayInfo(_ context.Context, p *models.PayInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.stamp(&p.Base)
	r.s.payInfos[p.ID] = *p
	return nil
}
