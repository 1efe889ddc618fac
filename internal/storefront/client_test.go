package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL, nil)
	c.httpClient.RetryWaitMin = time.Millisecond
	c.httpClient.RetryWaitMax = 5 * time.Millisecond
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGetUser_ReturnsFirstRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/users/details", r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]model.User{
			{UserID: 3, GlobalID: 123456789, Email: "dana@example.com", FirstName: "Dana", City: "Haifa"},
		})
	})

	user, err := c.GetUser(testContext(t), "tkn")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.UserID)
	assert.Equal(t, "Dana", user.FirstName)
	assert.Equal(t, "Haifa", user.City)
}

func TestGetUser_EmptyList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.GetUser(testContext(t), "tkn")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestGetCart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/carts/current", r.URL.Path)
		_, _ = w.Write([]byte(`{"cartId":7,"finalPrice":"42.5","items":[{"productId":1,"name":"Milk","quantity":2,"totalPrice":"10"}]}`))
	})

	cart, err := c.GetCart(testContext(t), "tkn")
	require.NoError(t, err)
	assert.Equal(t, int64(7), cart.CartID)
	assert.True(t, cart.FinalPrice.Equal(decimal.RequireFromString("42.5")))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Milk", cart.Items[0].Name)
}

func TestListCities_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`["Haifa","Eilat"]`))
	})

	cities, err := c.ListCities(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"Haifa", "Eilat"}, cities)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSubmitOrder_OK(t *testing.T) {
	var got model.Order
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`true`))
	})

	order := model.Order{
		GlobalID:   123456789,
		CartID:     7,
		FinalPrice: decimal.RequireFromString("42.5"),
		CreditCard: "1111",
		OrderDate:  "2024-03-05",
	}

	require.NoError(t, c.SubmitOrder(testContext(t), "tkn", order))
	assert.Equal(t, "1111", got.CreditCard)
	assert.Equal(t, int64(7), got.CartID)
	assert.Equal(t, "2024-03-05", got.OrderDate)
}

func TestSubmitOrder_ServerMessageVerbatim(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Shipping date is fully booked, pick another day"}`))
	})

	err := c.SubmitOrder(testContext(t), "tkn", model.Order{})
	require.Error(t, err)
	assert.Equal(t, "Shipping date is fully booked, pick another day", Message(err))
	assert.Equal(t, int32(1), calls.Load(), "order must not be retried")
}

func TestSubmitOrder_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	err := c.SubmitOrder(testContext(t), "tkn", model.Order{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Wrong email or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tkn","userId":3,"firstName":"Dana","userType":"customer"}`))
	})

	res, err := c.Login(testContext(t), "dana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tkn", res.Token)
	assert.Equal(t, int64(3), res.UserID)

	_, err = c.Login(testContext(t), "dana@example.com", "wrong")
	assert.Equal(t, "Wrong email or password", Message(err))
}

func TestClientNotConfigured(t *testing.T) {
	c := NewClient("", nil)

	_, err := c.ListCities(context.Background())
	assert.Error(t, err)
	assert.Error(t, c.SubmitOrder(context.Background(), "", model.Order{}))
}

func TestMessage_TransportError(t *testing.T) {
	err := errors.New("do request: connection refused")
	assert.Equal(t, "do request: connection refused", Message(err))
}
