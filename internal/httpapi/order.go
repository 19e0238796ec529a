package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/logx"
	"storefront/internal/paging"
	"storefront/internal/service"
)

const (
	callbackSuccess = "success"
	callbackFailed  = "failed"
)

type orderNoForm struct {
	OrderNo int64 `form:"orderNo" binding:"required"`
}

func (s *Server) orderCreate(c *gin.Context) {
	var req shippingIDForm
	if !bind(c, &req) {
		return
	}
	view, err := s.orders.Create(c.Request.Context(), currentUser(c).ID, req.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (s *Server) orderCancel(c *gin.Context) {
	var req orderNoForm
	if !bind(c, &req) {
		return
	}
	if err := s.orders.Cancel(c.Request.Context(), currentUser(c).ID, req.OrderNo); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (s *Server) orderCartProduct(c *gin.Context) {
	p, err := s.orders.CartPreview(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

func (s *Server) orderDetail(c *gin.Context) {
	var req orderNoForm
	if !bind(c, &req) {
		return
	}
	view, err := s.orders.Detail(c.Request.Context(), currentUser(c).ID, req.OrderNo)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (s *Server) orderList(c *gin.Context) {
	var req pageForm
	if !bind(c, &req) {
		return
	}
	page, err := s.orders.List(c.Request.Context(), currentUser(c).ID, paging.New(req.PageNum, req.PageSize))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

func (s *Server) orderPay(c *gin.Context) {
	var req orderNoForm
	if !bind(c, &req) {
		return
	}
	pay, err := s.orders.Pay(c.Request.Context(), currentUser(c).ID, req.OrderNo)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, pay)
}

func (s *Server) orderPayStatus(c *gin.Context) {
	var req orderNoForm
	if !bind(c, &req) {
		return
	}
	paid, err := s.orders.PayStatus(c.Request.Context(), currentUser(c).ID, req.OrderNo)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, paid)
}

// paymentCallback answers the gateway in plain text.
func (s *Server) paymentCallback(c *gin.Context) {
	orderNo, err := strconv.ParseInt(c.Request.FormValue("out_trade_no"), 10, 64)
	if err != nil {
		logx.Warn().Str("out_trade_no", c.Request.FormValue("out_trade_no")).Msg("payment callback without order number")
		c.String(http.StatusOK, callbackFailed)
		return
	}
	cb := service.Callback{
		OrderNo:     orderNo,
		TradeNo:     c.Request.FormValue("trade_no"),
		TradeStatus: c.Request.FormValue("trade_status"),
		GmtPayment:  c.Request.FormValue("gmt_payment"),
	}
	logx.Info().Int64("orderNo", cb.OrderNo).Str("tradeNo", cb.TradeNo).Str("tradeStatus", cb.TradeStatus).Msg("payment callback")

	repeated, err := s.orders.PaymentCallback(c.Request.Context(), cb)
	if err != nil {
		logx.Warn().Err(err).Int64("orderNo", cb.OrderNo).Msg("payment callback rejected")
		c.String(http.StatusOK, callbackFailed)
		return
	}
	if repeated {
		logx.Info().Int64("orderNo", cb.OrderNo).Msg("repeated payment callback")
	}
	c.String(http.StatusOK, callbackSuccess)
}

func (s *Server) manageOrderList(c *gin.Context) {
	var req pageForm
	if !bind(c, &req) {
		return
	}
	page, err := s.orders.ManageList(c.Request.Context(), paging.New(req.PageNum, req.PageSize))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

func (s *Server) manageOrderDetail(c *gin.Context) {
	var req orderNoForm
	if !bind(c, &req) {
		return
	}
	view, err := s.orders.ManageDetail(c.Request.Context(), req.OrderNo)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (s *Server) manageOrderSearch(c *gin.Context) {
	var req struct {
		pageForm
		OrderNo int64 `form:"orderNo" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	page, err := s.orders.ManageSearch(c.Request.Context(), req.OrderNo, paging.New(req.PageNum, req.PageSize))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

func (s *Server) manageSendGoods(c *gin.Context) {
	var req orderNoForm
	if !bind(c, &req) {
		return
	}
	if err := s.orders.SendGoods(c.Request.Context(), req.OrderNo); err != nil {
		fail(c, err)
		return
	}
	okMsg(c, "Order shipped")
}
