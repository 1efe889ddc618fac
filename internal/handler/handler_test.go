package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-checkout/internal/checkout"
	"github.com/mmeshcher/storefront-checkout/internal/middleware"
	"github.com/mmeshcher/storefront-checkout/internal/model"
	"github.com/mmeshcher/storefront-checkout/internal/repository"
	"github.com/mmeshcher/storefront-checkout/internal/storefront"
	"github.com/mmeshcher/storefront-checkout/internal/validation"
)

const testReceiptID = "9b2f7c1e-2f4a-4a8e-9a57-0d0c6d7e1f10"

type stubCheckout struct {
	screen      *checkout.Screen
	cities      []string
	citiesErr   error
	items       []model.CartItem
	searchQuery string
	fieldErrs   validation.FieldErrors
	result      *checkout.Result
	placedForm  checkout.Form
}

func (s *stubCheckout) Load(ctx context.Context, sess *model.Session) *checkout.Screen {
	return s.screen
}

func (s *stubCheckout) Cities(ctx context.Context) ([]string, error) {
	return s.cities, s.citiesErr
}

func (s *stubCheckout) SearchCart(ctx context.Context, sess *model.Session, query string) ([]model.CartItem, error) {
	s.searchQuery = query
	return s.items, nil
}

func (s *stubCheckout) Validate(form checkout.Form) validation.FieldErrors {
	return s.fieldErrs
}

func (s *stubCheckout) PlaceOrder(ctx context.Context, sess *model.Session, form checkout.Form) *checkout.Result {
	s.placedForm = form
	return s.result
}

type stubSessions struct {
	openSession *model.Session
	openErr     error
	terminated  int
}

func (s *stubSessions) Open(ctx context.Context, email, password string) (*model.Session, error) {
	return s.openSession, s.openErr
}

func (s *stubSessions) Terminate(ctx context.Context, sess *model.Session) error {
	s.terminated++
	return nil
}

func (s *stubSessions) Load(ctx context.Context, id string) (*model.Session, error) {
	if s.openSession != nil && s.openSession.ID == id {
		return s.openSession, nil
	}
	return nil, repository.ErrSessionNotFound
}

type stubReceipts struct {
	receipts map[string]*model.Receipt
}

func (s *stubReceipts) TakeReceipt(ctx context.Context, id string) (*model.Receipt, error) {
	rc, ok := s.receipts[id]
	if !ok {
		return nil, repository.ErrReceiptNotFound
	}
	delete(s.receipts, id)
	return rc, nil
}

type testEnv struct {
	checkout *stubCheckout
	sessions *stubSessions
	receipts *stubReceipts
	handler  *Handler
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	env := &testEnv{
		checkout: &stubCheckout{},
		sessions: &stubSessions{openSession: &model.Session{ID: "s-1", Token: "tkn", UserID: 1, FirstName: "Dana"}},
		receipts: &stubReceipts{receipts: map[string]*model.Receipt{}},
	}

	auth := middleware.NewAuthMiddleware("test-secret", env.sessions, time.Hour)
	env.handler = NewHandler(env.checkout, env.sessions, env.receipts, logger, auth)
	env.router = env.handler.SetupRouter()
	return env
}

func (e *testEnv) sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.authMiddleware.SetSessionCookie(rec, "s-1")
	return rec.Result().Cookies()[0]
}

func (e *testEnv) do(t *testing.T, method, path string, body any, withSession bool) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if withSession {
		req.AddCookie(e.sessionCookie(t))
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec.Result()
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodPost, "/api/user/login", credentialsRequest{Email: "dana@example.com", Password: "secret"}, false)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	cookies := res.Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
}

func TestLogin_Rejected(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.openErr = &storefront.APIError{StatusCode: http.StatusUnauthorized, Message: "Wrong email or password"}

	res := env.do(t, http.MethodPost, "/api/user/login", credentialsRequest{Email: "dana@example.com", Password: "bad"}, false)
	defer res.Body.Close()

	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	var body notificationsResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, "Wrong email or password", body.Notifications[0].Message)
}

func TestLogin_BadRequest(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodPost, "/api/user/login", credentialsRequest{Email: "dana@example.com"}, false)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodPost, "/api/user/logout", nil, true)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, env.sessions.terminated)

	var body redirectResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "/login", body.Redirect)
}

func TestCheckoutRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/checkout", "/api/checkout/cities", "/api/checkout/cart"} {
		res := env.do(t, http.MethodGet, path, nil, false)
		res.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, path)
	}
}

func TestGetCheckout(t *testing.T) {
	env := newTestEnv(t)
	env.checkout.screen = &checkout.Screen{
		User:          &model.User{FirstName: "Dana"},
		Cities:        []string{"Haifa"},
		Notifications: []model.Notification{},
	}

	res := env.do(t, http.MethodGet, "/api/checkout", nil, true)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var screen checkout.Screen
	require.NoError(t, json.NewDecoder(res.Body).Decode(&screen))
	assert.Equal(t, "Dana", screen.User.FirstName)
	assert.Equal(t, []string{"Haifa"}, screen.Cities)
}

func TestGetCities_UpstreamError(t *testing.T) {
	env := newTestEnv(t)
	env.checkout.citiesErr = &storefront.APIError{StatusCode: 500, Message: "cities are unavailable"}

	res := env.do(t, http.MethodGet, "/api/checkout/cities", nil, true)
	defer res.Body.Close()

	require.Equal(t, http.StatusBadGateway, res.StatusCode)

	var body notificationsResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "cities are unavailable", body.Notifications[0].Message)
}

func TestSearchCart_PassesQuery(t *testing.T) {
	env := newTestEnv(t)
	env.checkout.items = []model.CartItem{{Name: "Milk"}}

	res := env.do(t, http.MethodGet, "/api/checkout/cart?search=mil", nil, true)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "mil", env.checkout.searchQuery)
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)
	env.checkout.fieldErrs = validation.FieldErrors{"city": "City field Is Required"}

	res := env.do(t, http.MethodPost, "/api/checkout/validate", checkout.Form{}, true)
	defer res.Body.Close()

	var body validateResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.False(t, body.Valid)
	assert.Equal(t, "City field Is Required", body.FieldErrors["city"])
}

func TestPlaceOrder_Success(t *testing.T) {
	env := newTestEnv(t)
	env.checkout.result = &checkout.Result{
		State:         checkout.StateSuccess,
		Notifications: []model.Notification{{Level: model.NotificationSuccess, Message: "ok"}},
		ReceiptID:     testReceiptID,
		Redirect:      "/login",
	}

	form := checkout.Form{GlobalID: "123456789", City: "Haifa", Street: "Herzl 1", ShippingDate: "2024-03-10", CreditCard: "4111111111111111"}
	res := env.do(t, http.MethodPost, "/api/checkout/order", form, true)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, form, env.checkout.placedForm)

	var body orderResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, checkout.StateSuccess, body.State)
	assert.Equal(t, "/api/receipts/"+testReceiptID, body.ReceiptURL)
	assert.Equal(t, "/login", body.Redirect)
	assert.Equal(t, checkout.Form{}, body.Form)

	cookies := res.Cookies()
	require.NotEmpty(t, cookies)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestPlaceOrder_FailedKeepsSession(t *testing.T) {
	env := newTestEnv(t)
	form := checkout.Form{GlobalID: "123456789", CreditCard: "4111111111111111"}
	env.checkout.result = &checkout.Result{
		State:         checkout.StateFailed,
		Notifications: []model.Notification{{Level: model.NotificationError, Message: "out of stock"}},
		Form:          form,
	}

	res := env.do(t, http.MethodPost, "/api/checkout/order", form, true)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, res.Cookies())

	var body orderResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, checkout.StateFailed, body.State)
	assert.Equal(t, "out of stock", body.Notifications[0].Message)
	assert.Equal(t, form, body.Form)
	assert.Empty(t, body.ReceiptURL)
	assert.Empty(t, body.Redirect)
}

func TestDownloadReceipt_Once(t *testing.T) {
	env := newTestEnv(t)
	env.receipts.receipts[testReceiptID] = &model.Receipt{ID: testReceiptID, Filename: "order-reciept.pdf", Content: []byte("%PDF-1.3")}

	res := env.do(t, http.MethodGet, "/api/receipts/"+testReceiptID, nil, false)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/pdf", res.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="order-reciept.pdf"`, res.Header.Get("Content-Disposition"))

	again := env.do(t, http.MethodGet, "/api/receipts/"+testReceiptID, nil, false)
	defer again.Body.Close()
	assert.Equal(t, http.StatusNotFound, again.StatusCode)
}

func TestDownloadReceipt_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/receipts/not-a-uuid", nil, false)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
