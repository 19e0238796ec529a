package httpapi

import "github.com/gin-gonic/gin"

func (s *Server) addCategory(c *gin.Context) {
	var req struct {
		Name     string `form:"categoryName"`
		ParentID uint   `form:"parentId,default=0"`
	}
	if !bind(c, &req) {
		return
	}
	if err := s.categories.Add(c.Request.Context(), req.Name, req.ParentID); err != nil {
		fail(c, err)
		return
	}
	okMsg(c, "Category added")
}

func (s *Server) setCategoryName(c *gin.Context) {
	var req struct {
		ID   uint   `form:"categoryId"`
		Name string `form:"categoryName"`
	}
	if !bind(c, &req) {
		return
	}
	if err := s.categories.Rename(c.Request.Context(), req.ID, req.Name); err != nil {
		fail(c, err)
		return
	}
	okMsg(c, "Category name updated")
}

type categoryForm struct {
	ID uint `form:"categoryId,default=0"`
}

func (s *Server) getCategory(c *gin.Context) {
	var req categoryForm
	if !bind(c, &req) {
		return
	}
	list, err := s.categories.Children(c.Request.Context(), req.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (s *Server) getDeepCategory(c *gin.Context) {
	var req categoryForm
	if !bind(c, &req) {
		return
	}
	ids, err := s.categories.DeepChildIDs(c.Request.Context(), req.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, ids)
}
