package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/paging"
	"storefront/internal/store"
)

const msgProductUnavailable = "The product has been taken off the shelves or deleted"

// ProductService manages the catalog for admins and shoppers.
type ProductService struct {
	products   store.ProductRepository
	categories store.CategoryRepository
	tree       *CategoryService
	imageHost  string
}

// NewProductService builds a ProductService; imageHost prefixes image names in views.
func NewProductService(products store.ProductRepository, categories store.CategoryRepository, imageHost string) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		tree:       NewCategoryService(categories),
		imageHost:  imageHost,
	}
}

// ProductDetail is the full view of one product.
type ProductDetail struct {
	ID               uint                 `json:"id"`
	CategoryID       uint                 `json:"categoryId"`
	ParentCategoryID uint                 `json:"parentCategoryId"`
	Name             string               `json:"name"`
	Subtitle         string               `json:"subtitle"`
	MainImage        string               `json:"mainImage"`
	SubImages        string               `json:"subImages"`
	Detail           string               `json:"detail"`
	Price            decimal.Decimal      `json:"price"`
	Stock            int                  `json:"stock"`
	Status           models.ProductStatus `json:"status"`
	ImageHost        string               `json:"imageHost"`
	CreateTime       string               `json:"createTime"`
	UpdateTime       string               `json:"updateTime"`
}

// ProductListItem is the summary of a product in listings.
type ProductListItem struct {
	ID         uint                 `json:"id"`
	CategoryID uint                 `json:"categoryId"`
	Name       string               `json:"name"`
	Subtitle   string               `json:"subtitle"`
	MainImage  string               `json:"mainImage"`
	Price      decimal.Decimal      `json:"price"`
	Status     models.ProductStatus `json:"status"`
	ImageHost  string               `json:"imageHost"`
}

// ProductInput creates a product when ID is 0 and patches it otherwise.
type ProductInput struct {
	ID uint
	store.ProductPatch
}

// SaveOrUpdate reports whether a new product was created. The first sub
// image, when present, becomes the main image.
func (s *ProductService) SaveOrUpdate(ctx context.Context, in ProductInput) (bool, error) {
	if in.SubImages != nil {
		p := models.Product{SubImages: *in.SubImages}
		if first := p.FirstSubImage(); first != "" {
			in.MainImage = &first
		}
	}
	if in.Status != nil && !in.Status.Valid() {
		return false, apperr.IllegalArgument()
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return false, apperr.IllegalArgument()
		}
		price := in.Price.Round(2)
		in.Price = &price
	}
	if in.Stock != nil && *in.Stock < 0 {
		return false, apperr.IllegalArgument()
	}

	if in.ID != 0 {
		if err := s.products.Update(ctx, in.ID, in.ProductPatch); err != nil {
			return false, lookup(err, "Failed to update the product")
		}
		return false, nil
	}

	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.CategoryID == nil || in.Price == nil {
		return false, apperr.IllegalArgument()
	}
	p := models.Product{
		CategoryID: *in.CategoryID,
		Name:       strings.TrimSpace(*in.Name),
		Price:      *in.Price,
		Status:     models.ProductOnSale,
	}
	if in.Subtitle != nil {
		p.Subtitle = *in.Subtitle
	}
	if in.MainImage != nil {
		p.MainImage = *in.MainImage
	}
	if in.SubImages != nil {
		p.SubImages = *in.SubImages
	}
	if in.Detail != nil {
		p.Detail = *in.Detail
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return false, apperr.Wrap(err, "Failed to add the product")
	}
	return true, nil
}

// SetSaleStatus moves a product on sale, off shelf or to deleted.
func (s *ProductService) SetSaleStatus(ctx context.Context, id uint, status models.ProductStatus) error {
	if id == 0 || !status.Valid() {
		return apperr.IllegalArgument()
	}
	if err := s.products.UpdateStatus(ctx, id, status); err != nil {
		return lookup(err, "Failed to modify product sale status")
	}
	return nil
}

// ManageDetail returns a product regardless of its status.
func (s *ProductService) ManageDetail(ctx context.Context, id uint) (ProductDetail, error) {
	if id == 0 {
		return ProductDetail{}, apperr.IllegalArgument()
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return ProductDetail{}, lookup(err, "The product does not exist")
	}
	return s.detail(ctx, p)
}

func (s *ProductService) ManageList(ctx context.Context, q paging.Query) (paging.Page[ProductListItem], error) {
	list, total, err := s.products.List(ctx, q)
	if err != nil {
		return paging.Page[ProductListItem]{}, apperr.Wrap(err, "Failed to list products")
	}
	return s.page(q, total, list), nil
}

// ManageSearch filters by name substring and, when id > 0, by id.
func (s *ProductService) ManageSearch(ctx context.Context, name string, id uint, q paging.Query) (paging.Page[ProductListItem], error) {
	list, total, err := s.products.Search(ctx, strings.TrimSpace(name), id, q)
	if err != nil {
		return paging.Page[ProductListItem]{}, apperr.Wrap(err, "Failed to search products")
	}
	return s.page(q, total, list), nil
}

// Detail is the storefront view; only products on sale are visible.
func (s *ProductService) Detail(ctx context.Context, id uint) (ProductDetail, error) {
	if id == 0 {
		return ProductDetail{}, apperr.IllegalArgument()
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return ProductDetail{}, lookup(err, msgProductUnavailable)
	}
	if !p.OnSale() {
		return ProductDetail{}, apperr.Fail(msgProductUnavailable)
	}
	return s.detail(ctx, p)
}

// ProductQuery selects storefront products by keyword or category.
type ProductQuery struct {
	Keyword    string
	CategoryID uint
	OrderBy    string
	Page       paging.Query
}

// List is the storefront listing. A category expands to all of its descendants.
func (s *ProductService) List(ctx context.Context, in ProductQuery) (paging.Page[ProductListItem], error) {
	keyword := strings.TrimSpace(in.Keyword)
	if keyword == "" && in.CategoryID == 0 {
		return paging.Page[ProductListItem]{}, apperr.IllegalArgument()
	}

	f := store.ProductFilter{Keyword: keyword, OnSaleOnly: true}
	switch in.OrderBy {
	case store.OrderByPriceAsc, store.OrderByPriceDesc:
		f.OrderBy = in.OrderBy
	}

	if in.CategoryID != 0 {
		_, err := s.categories.FindByID(ctx, in.CategoryID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			if keyword == "" {
				return paging.NewPage(in.Page, 0, []ProductListItem{}), nil
			}
		case err != nil:
			return paging.Page[ProductListItem]{}, apperr.Wrap(err, "Failed to list products")
		default:
			ids, err := s.tree.DeepChildIDs(ctx, in.CategoryID)
			if err != nil {
				return paging.Page[ProductListItem]{}, err
			}
			f.CategoryIDs = ids
		}
	}

	list, total, err := s.products.Filter(ctx, f, in.Page)
	if err != nil {
		return paging.Page[ProductListItem]{}, apperr.Wrap(err, "Failed to list products")
	}
	return s.page(in.Page, total, list), nil
}

func (s *ProductService) detail(ctx context.Context, p *models.Product) (ProductDetail, error) {
	d := ProductDetail{
		ID:         p.ID,
		CategoryID: p.CategoryID,
		Name:       p.Name,
		Subtitle:   p.Subtitle,
		MainImage:  p.MainImage,
		SubImages:  p.SubImages,
		Detail:     p.Detail,
		Price:      p.Price,
		Stock:      p.Stock,
		Status:     p.Status,
		ImageHost:  s.imageHost,
		CreateTime: models.FormatTime(&p.CreatedAt),
		UpdateTime: models.FormatTime(&p.UpdatedAt),
	}
	c, err := s.categories.FindByID(ctx, p.CategoryID)
	switch {
	case err == nil:
		d.ParentCategoryID = c.ParentID
	case !errors.Is(err, models.ErrNotFound):
		return ProductDetail{}, apperr.Wrap(err, "Failed to load the product")
	}
	return d, nil
}

func (s *ProductService) page(q paging.Query, total int64, list []models.Product) paging.Page[ProductListItem] {
	return paging.Map(paging.NewPage(q, total, list), func(p models.Product) ProductListItem {
		return ProductListItem{
			ID:         p.ID,
			CategoryID: p.CategoryID,
			Name:       p.Name,
			Subtitle:   p.Subtitle,
			MainImage:  p.MainImage,
			Price:      p.Price,
			Status:     p.Status,
			ImageHost:  s.imageHost,
		}
	})
}
