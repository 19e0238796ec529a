package httpapi

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type cartLineForm struct {
	ProductID uint `form:"productId" binding:"required"`
	Count     int  `form:"count" binding:"required"`
}

func (s *Server) cartList(c *gin.Context) {
	view, err := s.carts.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (s *Server) cartAdd(c *gin.Context) {
	var req cartLineForm
	if !bind(c, &req) {
		return
	}
	view, err := s.carts.Add(c.Request.Context(), currentUser(c).ID, req.ProductID, req.Count)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (s *Server) cartUpdate(c *gin.Context) {
	var req cartLineForm
	if !bind(c, &req) {
		return
	}
	view, err := s.carts.Update(c.Request.Context(), currentUser(c).ID, req.ProductID, req.Count)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (s *Server) cartDelete(c *gin.Context) {
	var req struct {
		ProductIDs string `form:"productIds" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	view, err := s.carts.DeleteProducts(c.Request.Context(), currentUser(c).ID, req.ProductIDs)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (s *Server) cartSelect(checked bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID uint `form:"productId" binding:"required"`
		}
		if !bind(c, &req) {
			return
		}
		view, err := s.carts.SetChecked(c.Request.Context(), currentUser(c).ID, req.ProductID, checked)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, view)
	}
}

func (s *Server) cartSelectAll(checked bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := s.carts.SetChecked(c.Request.Context(), currentUser(c).ID, 0, checked)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, view)
	}
}

// cartCount answers 0 for anonymous callers.
func (s *Server) cartCount(c *gin.Context) {
	id, _ := sessions.Default(c).Get(sessionUserKey).(uint)
	if id == 0 {
		ok(c, 0)
		return
	}
	n, err := s.carts.Count(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, n)
}
