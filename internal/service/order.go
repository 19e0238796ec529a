package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/events"
	"storefront/internal/logx"
	"storefront/internal/models"
	"storefront/internal/paging"
	"storefront/internal/store"
)

// TradeSuccess is the gateway status of a completed payment.
const (
	TradeSuccess   = "TRADE_SUCCESS"
	payTimeout     = "120m"
	msgNoSuchOrder = "The order does not exist"
)

// OrderService runs checkout, payment and fulfilment of orders.
type OrderService struct {
	repos     store.Repos
	tx        store.Transactor
	events    events.Publisher
	imageHost string

	now     func() time.Time
	orderNo func(time.Time) int64
}

// NewOrderService builds an OrderService. tx runs order creation and payment
// recording atomically; pub receives order events.
func NewOrderService(repos store.Repos, tx store.Transactor, pub events.Publisher, imageHost string) *OrderService {
	return &OrderService{
		repos:     repos,
		tx:        tx,
		events:    pub,
		imageHost: imageHost,
		now:       time.Now,
		orderNo:   newOrderNo,
	}
}

// newOrderNo is the unix time in milliseconds plus a random 0..99.
func newOrderNo(t time.Time) int64 {
	return t.UnixMilli() + rand.Int64N(100)
}

// OrderItemView is one order line as shown to clients.
type OrderItemView struct {
	OrderNo          int64           `json:"orderNo"`
	ProductID        uint            `json:"productId"`
	ProductName      string          `json:"productName"`
	ProductImage     string          `json:"productImage"`
	CurrentUnitPrice decimal.Decimal `json:"currentUnitPrice"`
	Quantity         int             `json:"quantity"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	CreateTime       string          `json:"createTime"`
}

// ShippingView is the receiver address attached to an order view.
type ShippingView struct {
	ReceiverName     string `json:"receiverName"`
	ReceiverPhone    string `json:"receiverPhone"`
	ReceiverMobile   string `json:"receiverMobile"`
	ReceiverProvince string `json:"receiverProvince"`
	ReceiverCity     string `json:"receiverCity"`
	ReceiverDistrict string `json:"receiverDistrict"`
	ReceiverAddress  string `json:"receiverAddress"`
	ReceiverZip      string `json:"receiverZip"`
}

// OrderView is an order with its lines and shipping address.
type OrderView struct {
	OrderNo         int64              `json:"orderNo"`
	Payment         decimal.Decimal    `json:"payment"`
	PaymentType     models.PaymentType `json:"paymentType"`
	PaymentTypeDesc string             `json:"paymentTypeDesc"`
	Postage         int                `json:"postage"`
	Status          models.OrderStatus `json:"status"`
	StatusDesc      string             `json:"statusDesc"`
	PaymentTime     string             `json:"paymentTime"`
	SendTime        string             `json:"sendTime"`
	EndTime         string             `json:"endTime"`
	CloseTime       string             `json:"closeTime"`
	CreateTime      string             `json:"createTime"`
	Items           []OrderItemView    `json:"orderItemVoList"`
	ImageHost       string             `json:"imageHost"`
	ShippingID      uint               `json:"shippingId"`
	ReceiverName    string             `json:"receiverName"`
	Shipping        *ShippingView      `json:"shippingVo,omitempty"`
}

// CartPreview is what the checked cart lines would become as an order.
type CartPreview struct {
	Items             []OrderItemView `json:"orderItemVoList"`
	ProductTotalPrice decimal.Decimal `json:"productTotalPrice"`
	ImageHost         string          `json:"imageHost"`
}

// PayRequest is the simulated gateway request for an order.
type PayRequest struct {
	OrderNo        int64  `json:"orderNo"`
	TradeNo        string `json:"tradeNo"`
	Subject        string `json:"subject"`
	TotalAmount    string `json:"totalAmount"`
	Body           string `json:"body"`
	TimeoutExpress string `json:"timeoutExpress"`
}

// Callback carries the parameters of a gateway payment notification.
type Callback struct {
	OrderNo     int64
	TradeNo     string
	TradeStatus string
	GmtPayment  string
}

// Create turns the checked cart lines of userID into an order, all in one
// transaction: order and items are stored, stock is decremented, and the
// lines leave the cart.
func (s *OrderService) Create(ctx context.Context, userID, shippingID uint) (OrderView, error) {
	if _, err := s.repos.Shippings.FindByUser(ctx, userID, shippingID); err != nil {
		return OrderView{}, lookup(err, "The shipping address does not exist")
	}

	var (
		order models.Order
		items []models.OrderItem
	)
	err := s.tx.Transaction(ctx, func(r store.Repos) error {
		lines, err := r.Carts.ListCheckedByUser(ctx, userID)
		if err != nil {
			return err
		}
		items, err = s.cartItems(ctx, r, userID, lines)
		if err != nil {
			return err
		}

		order = models.Order{
			OrderNo:     s.orderNo(s.now()),
			UserID:      userID,
			ShippingID:  shippingID,
			Payment:     total(items),
			PaymentType: models.PaymentOnline,
			Postage:     0,
			Status:      models.OrderUnpaid,
		}
		if err := r.Orders.Create(ctx, &order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderNo = order.OrderNo
		}
		if err := r.Orders.CreateItems(ctx, items); err != nil {
			return err
		}
		for _, it := range items {
			if err := r.Products.DecreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, store.ErrStockShortage) {
					return apperr.Fail(fmt.Sprintf("Insufficient stock for product %s", it.ProductName))
				}
				return err
			}
		}
		ids := make([]uint, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ID)
		}
		return r.Carts.DeleteByIDs(ctx, ids)
	})
	if err != nil {
		return OrderView{}, failOr(err, "Failed to create the order")
	}

	logx.Info().Int64("orderNo", order.OrderNo).Uint("userId", userID).Str("payment", order.Payment.String()).Msg("order created")
	s.publish(ctx, events.OrderCreated, &order, items)
	return s.view(ctx, &order, items)
}

// cartItems snapshots the cart lines as order items, checking sale status and stock.
func (s *OrderService) cartItems(ctx context.Context, r store.Repos, userID uint, lines []models.CartItem) ([]models.OrderItem, error) {
	if len(lines) == 0 {
		return nil, apperr.Fail("The shopping cart is empty")
	}
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := r.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok || !p.OnSale() {
			name := p.Name
			if !ok {
				name = fmt.Sprint(l.ProductID)
			}
			return nil, apperr.Fail(fmt.Sprintf("Product %s is not available for sale", name))
		}
		if l.Quantity > p.Stock {
			return nil, apperr.Fail(fmt.Sprintf("Insufficient stock for product %s", p.Name))
		}
		items = append(items, models.OrderItem{
			UserID:           userID,
			ProductID:        p.ID,
			ProductName:      p.Name,
			ProductImage:     p.MainImage,
			CurrentUnitPrice: p.Price,
			Quantity:         l.Quantity,
			TotalPrice:       p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
		})
	}
	return items, nil
}

func total(items []models.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.TotalPrice)
	}
	return sum
}

// Cancel closes an unpaid order of userID.
func (s *OrderService) Cancel(ctx context.Context, userID uint, orderNo int64) error {
	o, err := s.repos.Orders.FindByUserAndOrderNo(ctx, userID, orderNo)
	if err != nil {
		return lookup(err, "The user does not have this order")
	}
	if o.Status != models.OrderUnpaid {
		return apperr.Fail("The order has been paid and cannot be canceled")
	}
	if err := s.repos.Orders.TransitionStatus(ctx, o.ID, models.OrderUnpaid, models.OrderCanceled); err != nil {
		return lookup(err, "Failed to cancel the order")
	}

	items, err := s.repos.Orders.ItemsByOrderNos(ctx, []int64{o.OrderNo})
	if err != nil {
		logx.Warn().Err(err).Int64("orderNo", o.OrderNo).Msg("load items for cancel event")
	}
	s.publish(ctx, events.OrderCanceled, o, items)
	return nil
}

// CartPreview prices the checked cart lines without creating an order.
func (s *OrderService) CartPreview(ctx context.Context, userID uint) (CartPreview, error) {
	lines, err := s.repos.Carts.ListCheckedByUser(ctx, userID)
	if err != nil {
		return CartPreview{}, apperr.Wrap(err, "Failed to load the cart")
	}
	items, err := s.cartItems(ctx, s.repos, userID, lines)
	if err != nil {
		return CartPreview{}, failOr(err, "Failed to load the cart")
	}
	views := make([]OrderItemView, 0, len(items))
	for _, it := range items {
		views = append(views, itemView(it))
	}
	return CartPreview{Items: views, ProductTotalPrice: total(items), ImageHost: s.imageHost}, nil
}

// Detail returns an order of userID.
func (s *OrderService) Detail(ctx context.Context, userID uint, orderNo int64) (OrderView, error) {
	o, err := s.repos.Orders.FindByUserAndOrderNo(ctx, userID, orderNo)
	if err != nil {
		return OrderView{}, lookup(err, "The user does not have this order")
	}
	return s.viewWithItems(ctx, o)
}

// List pages the orders of userID, newest first.
func (s *OrderService) List(ctx context.Context, userID uint, q paging.Query) (paging.Page[OrderView], error) {
	list, total, err := s.repos.Orders.ListByUser(ctx, userID, q)
	if err != nil {
		return paging.Page[OrderView]{}, apperr.Wrap(err, "Failed to list orders")
	}
	return s.page(ctx, q, total, list)
}

// Pay builds the simulated gateway request. Nothing is recorded until the
// gateway calls back.
func (s *OrderService) Pay(ctx context.Context, userID uint, orderNo int64) (PayRequest, error) {
	o, err := s.repos.Orders.FindByUserAndOrderNo(ctx, userID, orderNo)
	if err != nil {
		return PayRequest{}, lookup(err, "The user does not have this order")
	}
	if o.Status != models.OrderUnpaid {
		return PayRequest{}, apperr.Fail(fmt.Sprintf("The order cannot be paid in status %s", o.Status))
	}
	amount := o.Payment.StringFixed(2)
	no := fmt.Sprint(o.OrderNo)
	return PayRequest{
		OrderNo:        o.OrderNo,
		TradeNo:        no,
		Subject:        "Storefront order " + no,
		TotalAmount:    amount,
		Body:           fmt.Sprintf("Order %s, %s in total", no, amount),
		TimeoutExpress: payTimeout,
	}, nil
}

// PaymentCallback applies a gateway notification. It reports repeated=true,
// without recording anything, when the order is already paid.
func (s *OrderService) PaymentCallback(ctx context.Context, cb Callback) (repeated bool, err error) {
	o, err := s.repos.Orders.FindByOrderNo(ctx, cb.OrderNo)
	if err != nil {
		return false, lookup(err, "Not an order of this store, callback ignored")
	}
	if o.Status >= models.OrderPaid {
		return true, nil
	}

	paid := cb.TradeStatus == TradeSuccess
	err = s.tx.Transaction(ctx, func(r store.Repos) error {
		if paid {
			if err := r.Orders.MarkPaid(ctx, o.ID, s.paymentTime(cb.GmtPayment)); err != nil {
				return err
			}
		}
		return r.Orders.CreatePayInfo(ctx, &models.PayInfo{
			UserID:         o.UserID,
			OrderNo:        o.OrderNo,
			PayPlatform:    models.PayPlatformAlipay,
			PlatformNumber: cb.TradeNo,
			PlatformStatus: cb.TradeStatus,
		})
	})
	if errors.Is(err, models.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, apperr.Wrap(err, "Failed to record the payment")
	}

	logx.Info().Int64("orderNo", o.OrderNo).Str("tradeStatus", cb.TradeStatus).Msg("payment callback applied")
	if paid {
		items, err := s.repos.Orders.ItemsByOrderNos(ctx, []int64{o.OrderNo})
		if err != nil {
			logx.Warn().Err(err).Int64("orderNo", o.OrderNo).Msg("load items for paid event")
		}
		s.publish(ctx, events.OrderPaid, o, items)
	}
	return false, nil
}

func (s *OrderService) paymentTime(gmt string) time.Time {
	if t, err := time.ParseInLocation(models.TimeLayout, gmt, time.Local); err == nil {
		return t
	}
	return s.now()
}

// PayStatus reports whether the order of userID has been paid.
func (s *OrderService) PayStatus(ctx context.Context, userID uint, orderNo int64) (bool, error) {
	o, err := s.repos.Orders.FindByUserAndOrderNo(ctx, userID, orderNo)
	if err != nil {
		return false, lookup(err, "The user does not have this order")
	}
	return o.Status >= models.OrderPaid, nil
}

// ManageList pages every order, newest first.
func (s *OrderService) ManageList(ctx context.Context, q paging.Query) (paging.Page[OrderView], error) {
	list, total, err := s.repos.Orders.ListAll(ctx, q)
	if err != nil {
		return paging.Page[OrderView]{}, apperr.Wrap(err, "Failed to list orders")
	}
	return s.page(ctx, q, total, list)
}

func (s *OrderService) ManageDetail(ctx context.Context, orderNo int64) (OrderView, error) {
	o, err := s.repos.Orders.FindByOrderNo(ctx, orderNo)
	if err != nil {
		return OrderView{}, lookup(err, msgNoSuchOrder)
	}
	return s.viewWithItems(ctx, o)
}

// ManageSearch looks an order up by number and returns it as a one-row page.
func (s *OrderService) ManageSearch(ctx context.Context, orderNo int64, q paging.Query) (paging.Page[OrderView], error) {
	o, err := s.repos.Orders.FindByOrderNo(ctx, orderNo)
	if err != nil {
		return paging.Page[OrderView]{}, lookup(err, msgNoSuchOrder)
	}
	return s.page(ctx, q, 1, []models.Order{*o})
}

// SendGoods ships a paid order.
func (s *OrderService) SendGoods(ctx context.Context, orderNo int64) error {
	o, err := s.repos.Orders.FindByOrderNo(ctx, orderNo)
	if err != nil {
		return lookup(err, msgNoSuchOrder)
	}
	if err := s.repos.Orders.MarkShipped(ctx, o.ID, s.now()); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return apperr.Fail(fmt.Sprintf("The order cannot be shipped in status %s", o.Status))
		}
		return apperr.Wrap(err, "Failed to ship the order")
	}
	s.publish(ctx, events.OrderShipped, o, nil)
	return nil
}

// publish logs and drops publishing failures.
func (s *OrderService) publish(ctx context.Context, t events.Type, o *models.Order, items []models.OrderItem) {
	ev := events.Event{
		Type:       t,
		OrderNo:    o.OrderNo,
		UserID:     o.UserID,
		Payment:    o.Payment,
		OccurredAt: s.now(),
	}
	for _, it := range items {
		ev.Items = append(ev.Items, events.Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		logx.Error().Err(err).Str("type", string(t)).Int64("orderNo", o.OrderNo).Msg("publish order event")
	}
}

func (s *OrderService) viewWithItems(ctx context.Context, o *models.Order) (OrderView, error) {
	items, err := s.repos.Orders.ItemsByOrderNos(ctx, []int64{o.OrderNo})
	if err != nil {
		return OrderView{}, apperr.Wrap(err, "Failed to load the order")
	}
	return s.view(ctx, o, items)
}

func (s *OrderService) page(ctx context.Context, q paging.Query, total int64, list []models.Order) (paging.Page[OrderView], error) {
	nos := make([]int64, 0, len(list))
	for _, o := range list {
		nos = append(nos, o.OrderNo)
	}
	items, err := s.repos.Orders.ItemsByOrderNos(ctx, nos)
	if err != nil {
		return paging.Page[OrderView]{}, apperr.Wrap(err, "Failed to list orders")
	}
	byOrder := make(map[int64][]models.OrderItem, len(list))
	for _, it := range items {
		byOrder[it.OrderNo] = append(byOrder[it.OrderNo], it)
	}

	views := make([]OrderView, 0, len(list))
	for i := range list {
		v, err := s.view(ctx, &list[i], byOrder[list[i].OrderNo])
		if err != nil {
			return paging.Page[OrderView]{}, err
		}
		views = append(views, v)
	}
	return paging.NewPage(q, total, views), nil
}

func (s *OrderService) view(ctx context.Context, o *models.Order, items []models.OrderItem) (OrderView, error) {
	v := OrderView{
		OrderNo:         o.OrderNo,
		Payment:         o.Payment,
		PaymentType:     o.PaymentType,
		PaymentTypeDesc: o.PaymentType.String(),
		Postage:         o.Postage,
		Status:          o.Status,
		StatusDesc:      o.Status.String(),
		PaymentTime:     models.FormatTime(o.PaymentTime),
		SendTime:        models.FormatTime(o.SendTime),
		EndTime:         models.FormatTime(o.EndTime),
		CloseTime:       models.FormatTime(o.CloseTime),
		CreateTime:      models.FormatTime(&o.CreatedAt),
		Items:           make([]OrderItemView, 0, len(items)),
		ImageHost:       s.imageHost,
		ShippingID:      o.ShippingID,
	}
	for _, it := range items {
		v.Items = append(v.Items, itemView(it))
	}

	sh, err := s.repos.Shippings.FindByID(ctx, o.ShippingID)
	switch {
	case err == nil:
		v.ReceiverName = sh.ReceiverName
		v.Shipping = &ShippingView{
			ReceiverName:     sh.ReceiverName,
			ReceiverPhone:    sh.ReceiverPhone,
			ReceiverMobile:   sh.ReceiverMobile,
			ReceiverProvince: sh.ReceiverProvince,
			ReceiverCity:     sh.ReceiverCity,
			ReceiverDistrict: sh.ReceiverDistrict,
			ReceiverAddress:  sh.ReceiverAddress,
			ReceiverZip:      sh.ReceiverZip,
		}
	case !errors.Is(err, models.ErrNotFound):
		return OrderView{}, apperr.Wrap(err, "Failed to load the order")
	}
	return v, nil
}

func itemView(it models.OrderItem) OrderItemView {
	return OrderItemView{
		OrderNo:          it.OrderNo,
		ProductID:        it.ProductID,
		ProductName:      it.ProductName,
		ProductImage:     it.ProductImage,
		CurrentUnitPrice: it.CurrentUnitPrice,
		Quantity:         it.Quantity,
		TotalPrice:       it.TotalPrice,
		CreateTime:       models.FormatTime(&it.CreatedAt),
	}
}

// failOr keeps business failures and wraps anything else with msg.
func failOr(err error, msg string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apperr.Wrap(err, msg)
}
