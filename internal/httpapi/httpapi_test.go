package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apperr"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store/memstore"
	"storefront/internal/tokencache"
)

const testImageHost = "http://img.test/"

func init() { gin.SetMode(gin.TestMode) }

type fakeUploader struct {
	name string
	err  error
}

func (f *fakeUploader) Save(_ context.Context, fh *multipart.FileHeader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.name, nil
}

type env struct {
	db      *memstore.Store
	handler http.Handler
	uploads *fakeUploader
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := memstore.New()
	r := db.Repos()
	e := &env{db: db, uploads: &fakeUploader{name: "a1.png"}}
	e.handler = NewRouter(Deps{
		Users:         service.NewUserService(r.Users, tokencache.NewMemory(time.Hour)),
		Categories:    service.NewCategoryService(r.Categories),
		Products:      service.NewProductService(r.Products, r.Categories, testImageHost),
		Carts:         service.NewCartService(r.Carts, r.Products, testImageHost),
		Shippings:     service.NewShippingService(r.Shippings),
		Orders:        service.NewOrderService(r, db, events.NopPublisher{}, testImageHost),
		Uploads:       e.uploads,
		ImageHost:     testImageHost,
		SessionName:   "test_session",
		SessionSecret: "test-secret",
		Checks:        []Check{{Name: "store", Ping: db.Ping}},
	})
	return e
}

// seedUser stores a user directly so tests can create administrators.
func (e *env) seedUser(t *testing.T, username, password string, role models.Role) {
	t.Helper()
	hash, err := models.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, e.db.Repos().Users.Create(context.Background(), &models.User{
		Username: username,
		Password: hash,
		Email:    username + "@example.com",
		Role:     role,
	}))
}

// client replays the session cookie between requests like a browser.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func (e *env) client(t *testing.T) *client {
	return &client{t: t, h: e.handler, cookies: map[string]*http.Cookie{}}
}

type reply struct {
	Status apperr.Code     `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

func (c *client) send(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) raw(path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req)
}

func (c *client) post(path string, form url.Values) reply {
	c.t.Helper()
	rec := c.raw(path, form)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	var r reply
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &r), rec.Body.String())
	return r
}

func (c *client) get(path string) reply {
	c.t.Helper()
	rec := c.send(httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	var r reply
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &r), rec.Body.String())
	return r
}

func (c *client) login(path, username, password string) {
	c.t.Helper()
	r := c.post(path, url.Values{"username": {username}, "password": {password}})
	require.Equal(c.t, apperr.CodeSuccess, r.Status, r.Msg)
}

func decode[T any](t *testing.T, r reply) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.Data, &v), string(r.Data))
	return v
}

func TestRegisterLoginLogout(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	r := c.post("/user/register", url.Values{
		"username": {"alice"},
		"password": {"secret"},
		"email":    {"alice@example.com"},
		"question": {"pet"},
		"answer":   {"cat"},
	})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)

	r = c.post("/user/register", url.Values{
		"username": {"alice"},
		"password": {"other"},
		"email":    {"alice2@example.com"},
	})
	assert.Equal(t, apperr.CodeFailure, r.Status)
	assert.Equal(t, "The username already exists", r.Msg)

	r = c.get("/user/get_user_info")
	assert.Equal(t, apperr.CodeFailure, r.Status)
	r = c.get("/user/get_information")
	assert.Equal(t, apperr.CodeNeedLogin, r.Status)

	c.login("/user/login", "alice", "secret")

	r = c.get("/user/get_user_info")
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	u := decode[map[string]any](t, r)
	assert.Equal(t, "alice", u["username"])
	assert.NotContains(t, u, "password")
	assert.NotContains(t, u, "answer")

	r = c.get("/user/logout")
	require.Equal(t, apperr.CodeSuccess, r.Status)

	r = c.get("/user/get_user_info")
	assert.Equal(t, apperr.CodeFailure, r.Status)
}

func TestLoginMissingPasswordIsIllegalArgument(t *testing.T) {
	c := newEnv(t).client(t)

	r := c.post("/user/login", url.Values{"username": {"alice"}})
	assert.Equal(t, apperr.CodeIllegalArgument, r.Status)
	assert.Equal(t, "ILLEGAL_ARGUMENT", r.Msg)
}

func TestLoginWrongPassword(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "bob", "right", models.RoleCustomer)
	c := e.client(t)

	r := c.post("/user/login", url.Values{"username": {"bob"}, "password": {"wrong"}})
	assert.Equal(t, apperr.CodeFailure, r.Status)
	assert.Equal(t, "Wrong password", r.Msg)
	assert.Empty(t, c.cookies)
}

func TestForgetPasswordFlow(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)
	r := c.post("/user/register", url.Values{
		"username": {"carol"},
		"password": {"old"},
		"email":    {"carol@example.com"},
		"question": {"city"},
		"answer":   {"paris"},
	})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)

	r = c.get("/user/forget_get_question?username=carol")
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	assert.Equal(t, "city", decode[string](t, r))

	r = c.post("/user/forget_check_answer", url.Values{
		"username": {"carol"}, "question": {"city"}, "answer": {"paris"},
	})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	token := decode[string](t, r)
	require.NotEmpty(t, token)

	r = c.post("/user/forget_reset_password", url.Values{
		"username": {"carol"}, "passwordNew": {"new"}, "forgetToken": {token},
	})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)

	c.login("/user/login", "carol", "new")
}

func TestUpdateInformationLeavesOmittedFields(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)
	r := c.post("/user/register", url.Values{
		"username": {"fay"},
		"password": {"pw"},
		"email":    {"fay@example.com"},
		"question": {"pet?"},
		"answer":   {"dog"},
	})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	c.login("/user/login", "fay", "pw")

	r = c.post("/user/update_information", url.Values{"phone": {"555"}})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	u := decode[map[string]any](t, r)
	assert.Equal(t, "555", u["phone"])
	assert.Equal(t, "fay@example.com", u["email"])
	assert.Equal(t, "pet?", u["question"])

	r = c.post("/user/update_information", url.Values{"email": {"not-an-email"}})
	assert.Equal(t, apperr.CodeIllegalArgument, r.Status)
}

func TestCheckValid(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "dave", "pw", models.RoleCustomer)
	c := e.client(t)

	r := c.get("/user/check_valid?str=dave&type=username")
	assert.Equal(t, apperr.CodeFailure, r.Status)

	r = c.get("/user/check_valid?str=erin&type=username")
	assert.Equal(t, apperr.CodeSuccess, r.Status)

	r = c.get("/user/check_valid?str=erin&type=shoe")
	assert.Equal(t, apperr.CodeFailure, r.Status)
	assert.Equal(t, "Wrong parameter", r.Msg)
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "cust", "pw", models.RoleCustomer)

	anon := e.client(t)
	r := anon.get("/manage/category/get_category")
	assert.Equal(t, apperr.CodeNeedLogin, r.Status)

	c := e.client(t)
	c.login("/user/login", "cust", "pw")
	r = c.get("/manage/category/get_category")
	assert.Equal(t, apperr.CodeFailure, r.Status)
	assert.Equal(t, "No administrator privileges", r.Msg)

	r = c.post("/manage/user/login", url.Values{"username": {"cust"}, "password": {"pw"}})
	assert.Equal(t, apperr.CodeFailure, r.Status)
}

func TestCartRequiresLoginButCountDoesNot(t *testing.T) {
	c := newEnv(t).client(t)

	r := c.get("/cart/list")
	assert.Equal(t, apperr.CodeNeedLogin, r.Status)

	r = c.get("/cart/get_cart_product_count")
	require.Equal(t, apperr.CodeSuccess, r.Status)
	assert.Equal(t, 0, decode[int](t, r))
}

type shop struct {
	*env
	admin, buyer *client
	productID    uint
}

func newShop(t *testing.T) *shop {
	t.Helper()
	e := newEnv(t)
	e.seedUser(t, "admin", "root", models.RoleAdmin)
	e.seedUser(t, "buyer", "pw", models.RoleCustomer)

	s := &shop{env: e, admin: e.client(t), buyer: e.client(t)}
	s.admin.login("/manage/user/login", "admin", "root")
	s.buyer.login("/user/login", "buyer", "pw")

	r := s.admin.post("/manage/category/add_category", url.Values{"categoryName": {"pens"}})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)

	r = s.admin.post("/manage/product/save", url.Values{
		"categoryId": {"1"},
		"name":       {"fountain pen"},
		"price":      {"12.50"},
		"stock":      {"5"},
		"subImages":  {"a.png,b.png"},
	})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	assert.Equal(t, "Product added", r.Msg)

	r = s.admin.get("/manage/product/list")
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	page := decode[struct {
		List []struct {
			ID        uint   `json:"id"`
			MainImage string `json:"mainImage"`
		} `json:"list"`
	}](t, r)
	require.Len(t, page.List, 1)
	assert.Equal(t, "a.png", page.List[0].MainImage)
	s.productID = page.List[0].ID
	return s
}

func (s *shop) id() string { return strconv.FormatUint(uint64(s.productID), 10) }

func TestProductVisibleToShoppers(t *testing.T) {
	s := newShop(t)
	anon := s.client(t)

	r := anon.get("/product/detail?productId=" + s.id())
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	d := decode[map[string]any](t, r)
	assert.Equal(t, "fountain pen", d["name"])
	assert.Equal(t, testImageHost, d["imageHost"])

	r = s.admin.post("/manage/product/set_sale_status", url.Values{
		"productId": {s.id()}, "status": {"2"},
	})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)

	r = anon.get("/product/detail?productId=" + s.id())
	assert.Equal(t, apperr.CodeFailure, r.Status)

	r = s.admin.get("/manage/product/detail?productId=" + s.id())
	assert.Equal(t, apperr.CodeSuccess, r.Status, "admins still see products off sale")
}

func TestCheckoutAndPaymentCallback(t *testing.T) {
	s := newShop(t)
	b := s.buyer

	r := b.post("/cart/add", url.Values{"productId": {s.id()}, "count": {"2"}})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	cart := decode[service.CartView](t, r)
	require.Len(t, cart.List, 1)
	assert.True(t, cart.AllChecked)
	assert.Equal(t, service.LimitNumSuccess, cart.List[0].LimitQuantity)

	r = b.get("/cart/get_cart_product_count")
	assert.Equal(t, 2, decode[int](t, r))

	r = b.post("/shipping/add", url.Values{"receiverName": {"Bea"}, "receiverAddress": {"Elm st 4"}})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	shippingID := decode[map[string]uint](t, r)["shippingId"]
	require.NotZero(t, shippingID)

	r = b.post("/order/create", url.Values{"shippingId": {strconv.FormatUint(uint64(shippingID), 10)}})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	order := decode[struct {
		OrderNo int64              `json:"orderNo"`
		Status  models.OrderStatus `json:"status"`
	}](t, r)
	assert.Equal(t, models.OrderUnpaid, order.Status)
	no := strconv.FormatInt(order.OrderNo, 10)

	r = b.get("/cart/get_cart_product_count")
	assert.Equal(t, 0, decode[int](t, r))

	r = b.get("/order/pay?orderNo=" + no)
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	pay := decode[service.PayRequest](t, r)
	assert.Equal(t, "25.00", pay.TotalAmount)

	r = b.get("/order/query_order_pay_status?orderNo=" + no)
	assert.False(t, decode[bool](t, r))

	anon := s.client(t)
	callback := url.Values{
		"out_trade_no": {no},
		"trade_no":     {"T-1"},
		"trade_status": {service.TradeSuccess},
		"gmt_payment":  {"2024-05-01 10:00:00"},
	}
	rec := anon.raw("/order/alipay_callback", callback)
	assert.Equal(t, "success", rec.Body.String())
	rec = anon.raw("/order/alipay_callback", callback)
	assert.Equal(t, "success", rec.Body.String(), "repeated callbacks are acknowledged")
	assert.Len(t, s.db.PayInfos(), 1)

	r = b.get("/order/query_order_pay_status?orderNo=" + no)
	assert.True(t, decode[bool](t, r))

	r = s.admin.post("/manage/order/send_goods", url.Values{"orderNo": {no}})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)

	r = b.get("/order/detail?orderNo=" + no)
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	assert.Equal(t, models.OrderShipped, decode[struct {
		Status models.OrderStatus `json:"status"`
	}](t, r).Status)

	r = b.post("/order/cancel", url.Values{"orderNo": {no}})
	assert.Equal(t, apperr.CodeFailure, r.Status)
}

func TestPaymentCallbackUnknownOrder(t *testing.T) {
	c := newEnv(t).client(t)

	rec := c.raw("/order/alipay_callback", url.Values{"out_trade_no": {"42"}, "trade_status": {service.TradeSuccess}})
	assert.Equal(t, "failed", rec.Body.String())

	rec = c.raw("/order/alipay_callback", url.Values{"out_trade_no": {"not-a-number"}})
	assert.Equal(t, "failed", rec.Body.String())
}

func TestOrdersAreScopedToTheirOwner(t *testing.T) {
	s := newShop(t)
	s.seedUser(t, "other", "pw", models.RoleCustomer)
	other := s.client(t)
	other.login("/user/login", "other", "pw")

	r := s.buyer.post("/cart/add", url.Values{"productId": {s.id()}, "count": {"1"}})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	r = s.buyer.post("/shipping/add", url.Values{"receiverName": {"Bea"}})
	shippingID := decode[map[string]uint](t, r)["shippingId"]
	r = s.buyer.post("/order/create", url.Values{"shippingId": {strconv.FormatUint(uint64(shippingID), 10)}})
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	no := strconv.FormatInt(decode[struct {
		OrderNo int64 `json:"orderNo"`
	}](t, r).OrderNo, 10)

	r = other.get("/order/detail?orderNo=" + no)
	assert.Equal(t, apperr.CodeFailure, r.Status)
	r = other.get("/shipping/select?shippingId=" + strconv.FormatUint(uint64(shippingID), 10))
	assert.Equal(t, apperr.CodeFailure, r.Status)

	r = s.admin.get("/manage/order/detail?orderNo=" + no)
	assert.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
}

func multipartUpload(t *testing.T, path, filename string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(uploadField, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("image bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	s := newShop(t)

	rec := s.admin.send(multipartUpload(t, "/manage/product/upload", "x.png"))
	var r reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	require.Equal(t, apperr.CodeSuccess, r.Status, r.Msg)
	got := decode[map[string]string](t, r)
	assert.Equal(t, "a1.png", got["uri"])
	assert.Equal(t, testImageHost+"a1.png", got["url"])

	s.uploads.err = errors.New("disk full")
	rec = s.admin.send(multipartUpload(t, "/manage/product/richtext_img_upload", "x.png"))
	var rich map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rich))
	assert.Equal(t, false, rich["success"])
	assert.Equal(t, "Upload failed", rich["msg"])

	s.uploads.err = nil
	rec = s.admin.send(multipartUpload(t, "/manage/product/richtext_img_upload", "x.png"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rich))
	assert.Equal(t, true, rich["success"])
	assert.Equal(t, testImageHost+"a1.png", rich["file_path"])
	assert.Equal(t, "X-File-Name", rec.Header().Get("Access-Control-Allow-Headers"))

	rec = s.buyer.send(multipartUpload(t, "/manage/product/richtext_img_upload", "x.png"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rich))
	assert.Equal(t, false, rich["success"])
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"store":"ok"}`, rec.Body.String())
}
