// Package storefront предоставляет клиент для удалённых сервисов витрины:
// пользователей, корзин, городов и заказов.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

// APIError описывает отказ сервиса витрины. Message содержит текст ошибки сервера без изменений.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Message возвращает текст ошибки для показа пользователю.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// LoginResult содержит токен и сведения о пользователе после успешного входа.
type LoginResult struct {
	Token     string `json:"token"`
	UserID    int64  `json:"userId"`
	FirstName string `json:"firstName"`
	UserType  string `json:"userType"`
}

// Client инкапсулирует HTTP-взаимодействие с витриной.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// NewClient создаёт клиент витрины по указанному адресу.
// Идемпотентные запросы повторяются при сетевых ошибках и ответах 5xx.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.RetryMax = 3
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	if logger != nil {
		rc.Logger = leveledLogger{logger.Sugar()}
	}

	return &Client{
		baseURL:    base,
		httpClient: rc,
	}
}

// Login проверяет учётные данные пользователя.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var res LoginResult
	if err := c.send(ctx, http.MethodPost, "/api/users/login", "", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetUser возвращает профиль текущего пользователя.
func (c *Client) GetUser(ctx context.Context, token string) (*model.User, error) {
	var users []model.User
	if err := c.get(ctx, "/api/users/details", token, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "user not found"}
	}
	return &users[0], nil
}

// GetCart возвращает текущую корзину пользователя.
func (c *Client) GetCart(ctx context.Context, token string) (*model.Cart, error) {
	var cart model.Cart
	if err := c.get(ctx, "/api/carts/current", token, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ListCities возвращает список городов доставки.
func (c *Client) ListCities(ctx context.Context) ([]string, error) {
	var cities []string
	if err := c.get(ctx, "/api/cities", "", &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

// SubmitOrder отправляет заказ. Запрос выполняется ровно один раз, без повторов.
func (c *Client) SubmitOrder(ctx context.Context, token string, order model.Order) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	return c.send(ctx, http.MethodPost, "/api/orders", token, body, nil)
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("storefront client not configured")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	setAuth(req.Header, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (c *Client) send(ctx context.Context, method, path, token string, body []byte, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("storefront client not configured")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setAuth(req.Header, token)

	resp, err := c.httpClient.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func setAuth(h http.Header, token string) {
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

		var eb errorBody
		if err := json.Unmarshal(raw, &eb); err == nil && eb.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: eb.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// leveledLogger передаёт сообщения retryablehttp в zap.
type leveledLogger struct {
	l *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.l.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.l.Infow(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.l.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.l.Warnw(msg, keysAndValues...)
}
