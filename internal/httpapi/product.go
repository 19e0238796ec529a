package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/logx"
	"storefront/internal/models"
	"storefront/internal/paging"
	"storefront/internal/service"
	"storefront/internal/storage"
	"storefront/internal/store"
)

const uploadField = "upload_file"

type productForm struct {
	ID         uint    `form:"id"`
	CategoryID *uint   `form:"categoryId"`
	Name       *string `form:"name"`
	Subtitle   *string `form:"subtitle"`
	MainImage  *string `form:"mainImage"`
	SubImages  *string `form:"subImages"`
	Detail     *string `form:"detail"`
	Price      *string `form:"price"`
	Stock      *int    `form:"stock"`
	Status     *int    `form:"status"`
}

func (f productForm) input() (service.ProductInput, error) {
	in := service.ProductInput{ID: f.ID, ProductPatch: store.ProductPatch{
		CategoryID: f.CategoryID,
		Name:       f.Name,
		Subtitle:   f.Subtitle,
		MainImage:  f.MainImage,
		SubImages:  f.SubImages,
		Detail:     f.Detail,
		Stock:      f.Stock,
	}}
	if f.Price != nil {
		price, err := decimal.NewFromString(*f.Price)
		if err != nil {
			return in, apperr.IllegalArgument()
		}
		in.Price = &price
	}
	if f.Status != nil {
		st := models.ProductStatus(*f.Status)
		in.Status = &st
	}
	return in, nil
}

func (s *Server) productSave(c *gin.Context) {
	var req productForm
	if !bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		fail(c, err)
		return
	}
	created, err := s.products.SaveOrUpdate(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	if created {
		okMsg(c, "Product added")
		return
	}
	okMsg(c, "Product updated")
}

func (s *Server) productSetSaleStatus(c *gin.Context) {
	var req struct {
		ID     uint `form:"productId"`
		Status int  `form:"status"`
	}
	if !bind(c, &req) {
		return
	}
	if err := s.products.SetSaleStatus(c.Request.Context(), req.ID, models.ProductStatus(req.Status)); err != nil {
		fail(c, err)
		return
	}
	okMsg(c, "Sale status updated")
}

type productIDForm struct {
	ID uint `form:"productId"`
}

func (s *Server) manageProductDetail(c *gin.Context) {
	var req productIDForm
	if !bind(c, &req) {
		return
	}
	d, err := s.products.ManageDetail(c.Request.Context(), req.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, d)
}

func (s *Server) manageProductList(c *gin.Context) {
	var req pageForm
	if !bind(c, &req) {
		return
	}
	page, err := s.products.ManageList(c.Request.Context(), paging.New(req.PageNum, req.PageSize))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

func (s *Server) manageProductSearch(c *gin.Context) {
	var req struct {
		pageForm
		Name string `form:"productName"`
		ID   uint   `form:"productId"`
	}
	if !bind(c, &req) {
		return
	}
	page, err := s.products.ManageSearch(c.Request.Context(), req.Name, req.ID, paging.New(req.PageNum, req.PageSize))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

func (s *Server) productDetail(c *gin.Context) {
	var req productIDForm
	if !bind(c, &req) {
		return
	}
	d, err := s.products.Detail(c.Request.Context(), req.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, d)
}

func (s *Server) productList(c *gin.Context) {
	var req struct {
		pageForm
		Keyword    string `form:"keyword"`
		CategoryID uint   `form:"categoryId"`
		OrderBy    string `form:"orderBy"`
	}
	if !bind(c, &req) {
		return
	}
	page, err := s.products.List(c.Request.Context(), service.ProductQuery{
		Keyword:    req.Keyword,
		CategoryID: req.CategoryID,
		OrderBy:    req.OrderBy,
		Page:       paging.New(req.PageNum, req.PageSize),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

func (s *Server) saveUpload(c *gin.Context) (string, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return "", apperr.IllegalArgument()
	}
	name, err := s.uploads.Save(c.Request.Context(), fh)
	if errors.Is(err, storage.ErrUnsupportedFormat) {
		return "", apperr.Fail("Unsupported image format")
	}
	if err != nil {
		return "", apperr.Wrap(err, "Upload failed")
	}
	return name, nil
}

func (s *Server) upload(c *gin.Context) {
	name, err := s.saveUpload(c)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"uri": name, "url": s.imageHost + name})
}

// richtextUpload answers in the shape rich text editors expect rather than
// the envelope.
func (s *Server) richtextUpload(c *gin.Context) {
	if _, err := s.adminUser(c); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "msg": apperr.From(err).Message})
		return
	}
	name, err := s.saveUpload(c)
	if err != nil {
		ae := apperr.From(err)
		if ae.Internal() {
			logx.Error().Err(ae.Err).Msg("rich text upload")
		}
		c.JSON(http.StatusOK, gin.H{"success": false, "msg": ae.Message})
		return
	}
	c.Header("Access-Control-Allow-Headers", "X-File-Name")
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Upload succeeded", "file_path": s.imageHost + name})
}
