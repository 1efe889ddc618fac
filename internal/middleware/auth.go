// Package middleware содержит HTTP middleware сервиса оформления заказа.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

type contextKey string

const sessionKey contextKey = "session"

const (
	// SessionCookieName имя cookie, в котором клиент хранит ссылку на сессию.
	SessionCookieName = "token"
	defaultCookieTTL  = 24 * time.Hour
)

// SessionLoader загружает действующую сессию по идентификатору.
type SessionLoader interface {
	Load(ctx context.Context, id string) (*model.Session, error)
}

// AuthMiddleware выполняет проверку сессии пользователя по подписанному cookie.
type AuthMiddleware struct {
	secretKey []byte
	sessions  SessionLoader
	ttl       time.Duration
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
// Срок жизни cookie ttl должен совпадать со сроком жизни сессии.
func NewAuthMiddleware(secret string, sessions SessionLoader, ttl time.Duration) *AuthMiddleware {
	if ttl <= 0 {
		ttl = defaultCookieTTL
	}

	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
		sessions:  sessions,
		ttl:       ttl,
	}
}

// Middleware проверяет cookie сессии и добавляет сессию в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		sessionID, ok := a.parseCookie(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		sess, err := a.sessions.Load(r.Context(), sessionID)
		if err != nil {
			a.ClearSessionCookie(w)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetSessionCookie устанавливает cookie сессии.
func (a *AuthMiddleware) SetSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    a.sign(sessionID),
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		Expires:  time.Now().Add(a.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie удаляет cookie сессии у клиента.
func (a *AuthMiddleware) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *AuthMiddleware) sign(sessionID string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(sessionID))
	return sessionID + "." + hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthMiddleware) parseCookie(cookieValue string) (string, bool) {
	idx := strings.LastIndex(cookieValue, ".")
	if idx <= 0 || idx == len(cookieValue)-1 {
		return "", false
	}

	sessionID := cookieValue[:idx]
	expected := a.sign(sessionID)

	if !hmac.Equal([]byte(cookieValue), []byte(expected)) {
		return "", false
	}

	return sessionID, true
}

// SessionFromContext извлекает сессию из контекста запроса.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*model.Session)
	return s, ok && s != nil
}

// WithSession возвращает контекст с сессией.
func WithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}
