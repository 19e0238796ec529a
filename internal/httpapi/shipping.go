package httpapi

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/paging"
)

type shippingForm struct {
	ID               uint   `form:"id"`
	ReceiverName     string `form:"receiverName"`
	ReceiverPhone    string `form:"receiverPhone"`
	ReceiverMobile   string `form:"receiverMobile"`
	ReceiverProvince string `form:"receiverProvince"`
	ReceiverCity     string `form:"receiverCity"`
	ReceiverDistrict string `form:"receiverDistrict"`
	ReceiverAddress  string `form:"receiverAddress"`
	ReceiverZip      string `form:"receiverZip"`
}

func (f shippingForm) model() models.Shipping {
	return models.Shipping{
		Base:             models.Base{ID: f.ID},
		ReceiverName:     f.ReceiverName,
		ReceiverPhone:    f.ReceiverPhone,
		ReceiverMobile:   f.ReceiverMobile,
		ReceiverProvince: f.ReceiverProvince,
		ReceiverCity:     f.ReceiverCity,
		ReceiverDistrict: f.ReceiverDistrict,
		ReceiverAddress:  f.ReceiverAddress,
		ReceiverZip:      f.ReceiverZip,
	}
}

type shippingIDForm struct {
	ID uint `form:"shippingId" binding:"required"`
}

func (s *Server) shippingAdd(c *gin.Context) {
	var req shippingForm
	if !bind(c, &req) {
		return
	}
	id, err := s.shippings.Add(c.Request.Context(), currentUser(c).ID, req.model())
	if err != nil {
		fail(c, err)
		return
	}
	okMsgData(c, "Address added", gin.H{"shippingId": id})
}

func (s *Server) shippingDelete(c *gin.Context) {
	var req shippingIDForm
	if !bind(c, &req) {
		return
	}
	if err := s.shippings.Delete(c.Request.Context(), currentUser(c).ID, req.ID); err != nil {
		fail(c, err)
		return
	}
	okMsg(c, "Address deleted")
}

func (s *Server) shippingUpdate(c *gin.Context) {
	var req shippingForm
	if !bind(c, &req) {
		return
	}
	if err := s.shippings.Update(c.Request.Context(), currentUser(c).ID, req.model()); err != nil {
		fail(c, err)
		return
	}
	okMsg(c, "Address updated")
}

func (s *Server) shippingSelect(c *gin.Context) {
	var req shippingIDForm
	if !bind(c, &req) {
		return
	}
	sh, err := s.shippings.Select(c.Request.Context(), currentUser(c).ID, req.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sh)
}

func (s *Server) shippingList(c *gin.Context) {
	var req pageForm
	if !bind(c, &req) {
		return
	}
	page, err := s.shippings.List(c.Request.Context(), currentUser(c).ID, paging.New(req.PageNum, req.PageSize))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}
