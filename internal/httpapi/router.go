// Package httpapi exposes the storefront and admin endpoints over gin.
package httpapi

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"storefront/internal/logx"
	"storefront/internal/service"
)

var formBinding = binding.Form

// Uploader stores an uploaded file and returns its public file name.
type Uploader interface {
	Save(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

// Check is a named readiness check reported by /health.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Deps is everything the router needs.
type Deps struct {
	Users      *service.UserService
	Categories *service.CategoryService
	Products   *service.ProductService
	Carts      *service.CartService
	Shippings  *service.ShippingService
	Orders     *service.OrderService
	Uploads    Uploader

	ImageHost     string
	UploadDir     string
	SessionName   string
	SessionSecret string
	SecureCookie  bool
	Checks        []Check
}

// Server holds the services behind the handlers.
type Server struct {
	users      *service.UserService
	categories *service.CategoryService
	products   *service.ProductService
	carts      *service.CartService
	shippings  *service.ShippingService
	orders     *service.OrderService
	uploads    Uploader
	imageHost  string
	checks     []Check
}

func NewServer(d Deps) *Server {
	return &Server{
		users:      d.Users,
		categories: d.Categories,
		products:   d.Products,
		carts:      d.Carts,
		shippings:  d.Shippings,
		orders:     d.Orders,
		uploads:    d.Uploads,
		imageHost:  d.ImageHost,
		checks:     d.Checks,
	}
}

// NewRouter builds the gin engine with sessions, logging and every route.
func NewRouter(d Deps) *gin.Engine {
	s := NewServer(d)

	r := gin.New()
	r.Use(logx.AccessLog(), gin.Recovery())

	store := cookie.NewStore([]byte(d.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 60,
		HttpOnly: true,
		Secure:   d.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(d.SessionName, store))

	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}
	r.GET("/health", s.health)

	s.routes(r)
	return r
}

// handle registers h for GET and POST, as clients of this API use both.
func handle(g gin.IRoutes, path string, h ...gin.HandlerFunc) {
	g.Match([]string{http.MethodGet, http.MethodPost}, path, h...)
}

func (s *Server) routes(r *gin.Engine) {
	user := r.Group("/user")
	handle(user, "/login", s.login)
	handle(user, "/logout", s.logout)
	handle(user, "/register", s.register)
	handle(user, "/check_valid", s.checkValid)
	handle(user, "/get_user_info", s.getUserInfo)
	handle(user, "/forget_get_question", s.forgetGetQuestion)
	handle(user, "/forget_check_answer", s.forgetCheckAnswer)
	handle(user, "/forget_reset_password", s.forgetResetPassword)
	handle(user, "/reset_password", s.requireLogin(), s.resetPassword)
	handle(user, "/update_information", s.requireLogin(), s.updateInformation)
	handle(user, "/get_information", s.requireLogin(), s.getInformation)

	product := r.Group("/product")
	handle(product, "/detail", s.productDetail)
	handle(product, "/list", s.productList)

	cart := r.Group("/cart")
	handle(cart, "/get_cart_product_count", s.cartCount)
	cart.Use(s.requireLogin())
	handle(cart, "/list", s.cartList)
	handle(cart, "/add", s.cartAdd)
	handle(cart, "/update", s.cartUpdate)
	handle(cart, "/delete_product", s.cartDelete)
	handle(cart, "/select", s.cartSelect(true))
	handle(cart, "/un_select", s.cartSelect(false))
	handle(cart, "/select_all", s.cartSelectAll(true))
	handle(cart, "/un_select_all", s.cartSelectAll(false))

	shipping := r.Group("/shipping", s.requireLogin())
	handle(shipping, "/add", s.shippingAdd)
	handle(shipping, "/del", s.shippingDelete)
	handle(shipping, "/update", s.shippingUpdate)
	handle(shipping, "/select", s.shippingSelect)
	handle(shipping, "/list", s.shippingList)

	order := r.Group("/order")
	handle(order, "/alipay_callback", s.paymentCallback)
	order.Use(s.requireLogin())
	handle(order, "/create", s.orderCreate)
	handle(order, "/cancel", s.orderCancel)
	handle(order, "/get_order_cart_product", s.orderCartProduct)
	handle(order, "/detail", s.orderDetail)
	handle(order, "/list", s.orderList)
	handle(order, "/pay", s.orderPay)
	handle(order, "/query_order_pay_status", s.orderPayStatus)

	manage := r.Group("/manage")
	handle(manage, "/user/login", s.manageLogin)
	handle(manage, "/product/richtext_img_upload", s.richtextUpload)

	admin := manage.Group("", s.requireAdmin())
	handle(admin, "/category/add_category", s.addCategory)
	handle(admin, "/category/set_category_name", s.setCategoryName)
	handle(admin, "/category/get_category", s.getCategory)
	handle(admin, "/category/get_deep_category", s.getDeepCategory)

	handle(admin, "/product/save", s.productSave)
	handle(admin, "/product/set_sale_status", s.productSetSaleStatus)
	handle(admin, "/product/detail", s.manageProductDetail)
	handle(admin, "/product/list", s.manageProductList)
	handle(admin, "/product/search", s.manageProductSearch)
	handle(admin, "/product/upload", s.upload)

	handle(admin, "/order/list", s.manageOrderList)
	handle(admin, "/order/detail", s.manageOrderDetail)
	handle(admin, "/order/search", s.manageOrderSearch)
	handle(admin, "/order/send_goods", s.manageSendGoods)
}

func (s *Server) health(c *gin.Context) {
	status := gin.H{}
	healthy := true
	for _, ch := range s.checks {
		if err := ch.Ping(c.Request.Context()); err != nil {
			healthy = false
			status[ch.Name] = err.Error()
			continue
		}
		status[ch.Name] = "ok"
	}
	status["ok"] = healthy
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

type pageForm struct {
	PageNum  int `form:"pageNum,default=1"`
	PageSize int `form:"pageSize,default=10"`
}
