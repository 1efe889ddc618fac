// Package handler содержит HTTP-обработчики API сервиса оформления заказа.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-checkout/internal/checkout"
	"github.com/mmeshcher/storefront-checkout/internal/middleware"
	"github.com/mmeshcher/storefront-checkout/internal/model"
	"github.com/mmeshcher/storefront-checkout/internal/repository"
	"github.com/mmeshcher/storefront-checkout/internal/storefront"
	"github.com/mmeshcher/storefront-checkout/internal/validation"
)

// CheckoutService определяет контракт логики экрана оформления заказа.
type CheckoutService interface {
	Load(ctx context.Context, sess *model.Session) *checkout.Screen
	Cities(ctx context.Context) ([]string, error)
	SearchCart(ctx context.Context, sess *model.Session, query string) ([]model.CartItem, error)
	Validate(form checkout.Form) validation.FieldErrors
	PlaceOrder(ctx context.Context, sess *model.Session, form checkout.Form) *checkout.Result
}

// SessionService определяет контракт открытия и завершения сессий.
type SessionService interface {
	Open(ctx context.Context, email, password string) (*model.Session, error)
	Terminate(ctx context.Context, sess *model.Session) error
}

// ReceiptStore выдаёт сохранённые чеки для скачивания.
type ReceiptStore interface {
	TakeReceipt(ctx context.Context, id string) (*model.Receipt, error)
}

// Handler реализует HTTP-обработчики API сервиса оформления заказа.
type Handler struct {
	checkout       CheckoutService
	sessions       SessionService
	receipts       ReceiptStore
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(c CheckoutService, s SessionService, rs ReceiptStore, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		checkout:       c,
		sessions:       s,
		receipts:       rs,
		logger:         logger,
		authMiddleware: auth,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	FirstName string `json:"firstName"`
	UserType  string `json:"userType"`
}

type redirectResponse struct {
	Redirect string `json:"redirect"`
}

type notificationsResponse struct {
	Notifications []model.Notification `json:"notifications"`
}

type validateResponse struct {
	Valid       bool                   `json:"valid"`
	FieldErrors validation.FieldErrors `json:"fieldErrors"`
}

type orderResponse struct {
	State         checkout.State         `json:"state"`
	Notifications []model.Notification   `json:"notifications"`
	FieldErrors   validation.FieldErrors `json:"fieldErrors,omitempty"`
	Form          checkout.Form          `json:"form"`
	ReceiptURL    string                 `json:"receiptUrl,omitempty"`
	Redirect      string                 `json:"redirect,omitempty"`
}

// Login выполняет вход через витрину и устанавливает cookie сессии.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	sess, err := h.sessions.Open(r.Context(), req.Email, req.Password)
	if err != nil {
		var apiErr *storefront.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			h.writeJSON(w, http.StatusUnauthorized, notificationsResponse{
				Notifications: []model.Notification{{Level: model.NotificationError, Message: apiErr.Message}},
			})
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetSessionCookie(w, sess.ID)
	h.writeJSON(w, http.StatusOK, loginResponse{FirstName: sess.FirstName, UserType: sess.UserType})
}

// Logout завершает сессию и направляет пользователя на экран входа.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.sessions.Terminate(r.Context(), sess); err != nil {
		h.logger.Error("logout error", zap.Error(err), zap.String("sessionID", sess.ID))
	}

	h.authMiddleware.ClearSessionCookie(w)
	h.writeJSON(w, http.StatusOK, redirectResponse{Redirect: checkout.LoginPath})
}

// GetCheckout возвращает данные для экрана оформления заказа.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	h.writeJSON(w, http.StatusOK, h.checkout.Load(r.Context(), sess))
}

// GetCities возвращает список городов доставки.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.checkout.Cities(r.Context())
	if err != nil {
		h.logger.Error("get cities error", zap.Error(err))
		h.writeJSON(w, http.StatusBadGateway, notificationsResponse{
			Notifications: []model.Notification{{Level: model.NotificationError, Message: storefront.Message(err)}},
		})
		return
	}

	if cities == nil {
		cities = []string{}
	}
	h.writeJSON(w, http.StatusOK, cities)
}

// SearchCart возвращает позиции корзины, отфильтрованные по строке поиска.
func (h *Handler) SearchCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	items, err := h.checkout.SearchCart(r.Context(), sess, r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("search cart error", zap.Error(err), zap.Int64("userID", sess.UserID))
		h.writeJSON(w, http.StatusBadGateway, notificationsResponse{
			Notifications: []model.Notification{{Level: model.NotificationError, Message: storefront.Message(err)}},
		})
		return
	}

	h.writeJSON(w, http.StatusOK, items)
}

// Validate проверяет форму без отправки заказа.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	errs := h.checkout.Validate(form)
	h.writeJSON(w, http.StatusOK, validateResponse{Valid: len(errs) == 0, FieldErrors: errs})
}

// PlaceOrder оформляет заказ текущего пользователя.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var form checkout.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	res := h.checkout.PlaceOrder(r.Context(), sess, form)

	resp := orderResponse{
		State:         res.State,
		Notifications: res.Notifications,
		FieldErrors:   res.FieldErrors,
		Form:          res.Form,
		Redirect:      res.Redirect,
	}
	if resp.Notifications == nil {
		resp.Notifications = []model.Notification{}
	}
	if res.ReceiptID != "" {
		resp.ReceiptURL = "/api/receipts/" + res.ReceiptID
	}

	if res.State == checkout.StateSuccess {
		h.authMiddleware.ClearSessionCookie(w)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// DownloadReceipt отдаёт PDF чека. Повторное скачивание того же чека невозможно.
func (h *Handler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	rc, err := h.receipts.TakeReceipt(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("download receipt error", zap.Error(err), zap.String("receiptID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+rc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(rc.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(rc.Content); err != nil {
		h.logger.Warn("write receipt", zap.Error(err), zap.String("receiptID", id))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response", zap.Error(err))
	}
}
